package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RemoveQuietly deletes path and ignores the outcome. Use it only for
// transient artifacts (stale temp files, backups) whose removal failure must
// never change the result of the surrounding operation.
func RemoveQuietly(path string) {
	_ = os.Remove(path)
}

// WriteFileAtomic writes data to a sibling temp file and renames it over path
// so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		RemoveQuietly(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		RemoveQuietly(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		RemoveQuietly(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		RemoveQuietly(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		RemoveQuietly(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// RenderAtomic lets render write a unique sibling temp file that keeps the
// extension of path, then renames it over path. Concurrent renders of the
// same path each publish a complete file; the last rename wins.
func RenderAtomic(path string, mode os.FileMode, render func(tmpPath string) error) error {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+stem+".*.tmp"+ext)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		RemoveQuietly(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := render(tmpPath); err != nil {
		RemoveQuietly(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		RemoveQuietly(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		RemoveQuietly(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
