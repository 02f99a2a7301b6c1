//go:build linux

package fileutil

import (
	"errors"

	"golang.org/x/sys/unix"
)

// exchange atomically swaps the directory entries of original and
// replacement. It reports false when the swap is not possible (no original,
// or the filesystem lacks RENAME_EXCHANGE) so the caller can fall back.
func exchange(original, replacement string) (bool, error) {
	err := unix.Renameat2(unix.AT_FDCWD, replacement, unix.AT_FDCWD, original, unix.RENAME_EXCHANGE)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, unix.ENOENT):
		if statErr := unix.Stat(replacement, new(unix.Stat_t)); statErr != nil {
			return false, err
		}
		return false, nil
	case errors.Is(err, unix.EINVAL), errors.Is(err, unix.ENOSYS), errors.Is(err, unix.EOPNOTSUPP):
		return false, nil
	default:
		return false, err
	}
}
