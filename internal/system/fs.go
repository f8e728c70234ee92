package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
)

// errorSharingViolation is ERROR_SHARING_VIOLATION.
const errorSharingViolation = 32

// ClearStats summarises a ClearDirectory call.
type ClearStats struct {
	Removed int
	InUse   int
	// Failed holds one error per entry that could not be removed.
	Failed []error
}

// ClearDirectory removes every entry inside dir and keeps dir itself.
// Files held open by another process are counted and skipped. A missing
// directory is not an error.
func ClearDirectory(dir string) (ClearStats, error) {
	var stats ClearStats

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stats, nil
		}
		return stats, fmt.Errorf("read %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			if IsFileInUse(err) {
				stats.InUse++
				continue
			}
			stats.Failed = append(stats.Failed, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		stats.Removed++
	}

	return stats, nil
}

// RemoveTree deletes path and everything under it. Missing paths are fine.
func RemoveTree(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// RecreateDir empties path by removing and creating it again.
func RecreateDir(path string) error {
	if err := RemoveTree(path); err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}

// RenamePath renames from to to, replacing a leftover to from an earlier run.
func RenamePath(from, to string) error {
	if _, err := os.Stat(from); err != nil {
		return fmt.Errorf("rename %s: %w", from, err)
	}
	if err := os.RemoveAll(to); err != nil {
		return fmt.Errorf("remove previous %s: %w", to, err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("rename %s to %s: %w", from, to, err)
	}
	return nil
}

// IsFileInUse reports whether err means another process holds the file open.
func IsFileInUse(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if runtime.GOOS == "windows" && errors.As(err, &errno) && uintptr(errno) == errorSharingViolation {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "being used by another process") ||
		strings.Contains(msg, "sharing violation")
}
