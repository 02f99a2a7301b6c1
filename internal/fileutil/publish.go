package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// BackupSuffix is appended to a published file's name while its previous
// content is parked during replacement.
const BackupSuffix = ".bak"

// Strategy selects how Publish swaps new content into place.
type Strategy string

const (
	// StrategyBackup parks the original under BackupSuffix, renames the new
	// content into place, then drops the backup.
	StrategyBackup Strategy = "backup"
	// StrategyExchange swaps both directory entries in one call where the
	// platform supports it and falls back to StrategyBackup elsewhere.
	StrategyExchange Strategy = "exchange"
)

// renameFile is swapped in tests to simulate a failing publish step.
var renameFile = os.Rename

// BackupPath returns the backup location used while replacing original.
func BackupPath(original string) string {
	return original + BackupSuffix
}

// PublishError reports a failure after the original was parked at Backup.
// In that state original is absent and Backup holds the last good content;
// recover by renaming Backup back to the original name.
type PublishError struct {
	Original string
	Backup   string
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %v (previous content left at %s)", e.Original, e.Err, e.Backup)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Publish replaces original with the file at replacement.
//
// Readers of the directory observe either the previous content or the new
// content, except for the window between parking the original and moving the
// replacement into place. If that second rename fails the original stays
// missing and its content sits at BackupPath(original); the returned
// *PublishError names both paths. Nothing is rolled back automatically.
//
// A missing original is not an error: the replacement is simply moved in.
func Publish(original, replacement string) error {
	backup := BackupPath(original)
	RemoveQuietly(backup) // stale backup from an interrupted run

	parked := true
	if err := renameFile(original, backup); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("park %s: %w", original, err)
		}
		parked = false
	}

	if err := renameFile(replacement, original); err != nil {
		if !parked {
			return fmt.Errorf("publish %s: %w", original, err)
		}
		return &PublishError{Original: original, Backup: backup, Err: err}
	}

	if parked {
		RemoveQuietly(backup) // a stray backup is harmless; never undo the publish
	}
	return nil
}

// PublishWith replaces original with replacement using the requested strategy.
func PublishWith(strategy Strategy, original, replacement string) error {
	if strategy != StrategyExchange {
		return Publish(original, replacement)
	}
	swapped, err := exchange(original, replacement)
	if err != nil {
		return fmt.Errorf("exchange %s: %w", original, err)
	}
	if !swapped {
		return Publish(original, replacement)
	}
	RemoveQuietly(replacement) // now holds the previous content
	return nil
}
