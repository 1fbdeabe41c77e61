// Package fsops provides filesystem operations with crash-safety guarantees.
//
// Every mutation setup-etc performs on the live directory goes through the FS
// interface. Mutations that replace an existing entry are staged under a
// sibling temporary name and renamed into place, so a reader (or a reboot)
// only ever observes the old entry or the new one.
//
// Key features:
//   - Atomic symlink publication (symlink to temp + rename)
//   - Atomic writes and owner/permission-stamped copies (temp file + fsync + rename)
//   - Path joining with explicit validation of relative names
//   - Testable via the FS interface
package fsops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// TempSuffix is appended to an entry name to form its staging name.
const TempSuffix = ".tmp"

// FS provides an abstraction for filesystem operations.
type FS interface {
	// Lstat returns file info without following symlinks.
	Lstat(path string) (os.FileInfo, error)

	// Readlink reads the literal value of a symlink.
	Readlink(path string) (string, error)

	// ReadDir lists a directory, sorted by name.
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// Remove removes a file, symlink or empty directory.
	Remove(path string) error

	// RemoveAll removes a path and all its contents.
	RemoveAll(path string) error

	// AtomicSymlink makes linkPath a symlink to target without ever leaving
	// linkPath missing.
	AtomicSymlink(target, linkPath string) error

	// AtomicWrite writes data to path atomically using temp file + rename.
	AtomicWrite(path string, data []byte, perm os.FileMode) error

	// CopyStamped copies src to dst with the given raw mode bits and owner,
	// atomically replacing dst.
	CopyStamped(src, dst string, mode uint32, uid, gid int) error

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// Touch creates an empty file if path does not exist. Existing content is kept.
	Touch(path string) error

	// Exists checks if a path exists without following a final symlink.
	Exists(path string) (bool, error)
}

// RealFS implements FS using actual OS operations.
type RealFS struct{}

// NewRealFS creates a new RealFS.
func NewRealFS() *RealFS {
	return &RealFS{}
}

func (fs *RealFS) Lstat(path string) (os.FileInfo, error) {
	return os.Lstat(path)
}

func (fs *RealFS) Readlink(path string) (string, error) {
	return os.Readlink(path)
}

func (fs *RealFS) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

func (fs *RealFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (fs *RealFS) Remove(path string) error {
	return os.Remove(path)
}

func (fs *RealFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (fs *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// AtomicSymlink points linkPath at target. A leftover staging link from an
// interrupted run is discarded first. On failure linkPath is left untouched.
func (fs *RealFS) AtomicSymlink(target, linkPath string) error {
	tmpPath := linkPath + TempSuffix
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale temp link: %w", err)
	}

	if err := os.Symlink(target, tmpPath); err != nil {
		return fmt.Errorf("failed to create temp link: %w", err)
	}

	if err := os.Rename(tmpPath, linkPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp link: %w", err)
	}

	_ = syncDir(filepath.Dir(linkPath))
	return nil
}

// AtomicWrite writes data to path atomically using temp file + rename.
func (fs *RealFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".setup-etc-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	tmpFile = nil
	_ = syncDir(dir)
	return nil
}

// CopyStamped copies the bytes of src (following symlinks) into dst.tmp,
// stamps owner and mode on the open descriptor, and renames it over dst.
// Ownership is set before the mode so set-id bits survive the chown.
func (fs *RealFS) CopyStamped(src, dst string, mode uint32, uid, gid int) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() {
		_ = srcFile.Close()
	}()

	tmpPath := dst + TempSuffix
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale temp file: %w", err)
	}

	tmpFile, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	fd := int(tmpFile.Fd())
	if err := unix.Fchown(fd, uid, gid); err != nil {
		return fmt.Errorf("failed to set owner %d:%d: %w", uid, gid, err)
	}
	if err := unix.Fchmod(fd, mode&07777); err != nil {
		return fmt.Errorf("failed to set mode %04o: %w", mode&07777, err)
	}
	if err := unix.Fsync(fd); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	committed = true
	_ = syncDir(filepath.Dir(dst))
	return nil
}

// Touch creates path if it does not exist, never truncating it.
func (fs *RealFS) Touch(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

// Exists checks if a path exists.
func (fs *RealFS) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// syncDir flushes directory metadata so a completed rename survives power loss.
func syncDir(dir string) error {
	fd, err := unix.Open(dir, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer func() {
		_ = unix.Close(fd)
	}()
	return unix.Fsync(fd)
}
