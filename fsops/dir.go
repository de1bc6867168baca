// Package fsops holds the filesystem steps of a deploy: preparing the
// install directory, clearing a stale binary and moving the new one in.
//
// None of the operations lock anything; two deploys racing on the same
// directories can interleave their removes and renames.
package fsops

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDirectory reports whether path was already a directory before the call.
// When it wasn't, the directory gets created; only the last path element is
// created, missing parents are an error.
func EnsureDirectory(path string, opts ...Option) (existed bool, err error) {
	if IsDir(path) {
		return true, nil
	}

	logdetail(newconf(opts).log, fmt.Sprintf("creating %s", path))
	if err := os.Mkdir(path, 0o755); err != nil {
		return false, fmt.Errorf("failed to create directory %s: %w", path, err)
	}

	return false, nil
}

// RemoveStale deletes a previously installed binary named name inside dir.
// Nothing is touched when existed is false: a directory that was just
// created can't hold a stale binary.
func RemoveStale(dir, name string, existed bool, opts ...Option) (removed bool, err error) {
	if !existed {
		return false, nil
	}

	target := filepath.Join(dir, name)
	if !IsFile(target) {
		return false, nil
	}

	logdetail(newconf(opts).log, fmt.Sprintf("removing stale %s", target))
	if err := os.Remove(target); err != nil {
		return false, fmt.Errorf("failed to remove stale binary %s: %w", target, err)
	}

	return true, nil
}

// IsDir returns true if path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile returns true if path exists and is a regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
