// Package fsops provides filesystem operations with safety guarantees.
//
// All filesystem access made while staging a package goes through the FS
// interface, which keeps the staging logic testable and makes the copy
// semantics explicit.
//
// Key features:
//   - Symlink-preserving copies (links are recreated, never dereferenced)
//   - Recursive directory copies that keep permission bits
//   - Atomic writes using temp file + rename
//   - Glob listing of a single directory
//   - Path validation for relative paths and identifiers
package fsops

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// FS provides an abstraction for filesystem operations.
type FS interface {
	// Lstat returns file info without following symlinks.
	Lstat(path string) (os.FileInfo, error)

	// Stat returns file info, following symlinks.
	Stat(path string) (os.FileInfo, error)

	// ReadDir lists the entries of a directory, sorted by name.
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string, perm os.FileMode) error

	// MkdirTemp creates a new, uniquely named temporary directory.
	MkdirTemp(dir, pattern string) (string, error)

	// RemoveAll removes a path and all its contents.
	RemoveAll(path string) error

	// Chmod changes the permission bits of path.
	Chmod(path string, mode os.FileMode) error

	// Copy copies a file, symlink or directory tree from src to dst.
	// Symlinks are recreated with the same target.
	Copy(src, dst string) error

	// WriteFile writes data to path atomically using temp file + rename.
	WriteFile(path string, data []byte, perm os.FileMode) error

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// Exists checks if a path exists. A dangling symlink exists.
	Exists(path string) (bool, error)

	// IsDir reports whether path resolves to a directory, following symlinks.
	IsDir(path string) bool

	// IsSymlink reports whether path itself is a symbolic link.
	IsSymlink(path string) bool

	// Glob returns the entries of dir whose names match pattern.
	Glob(dir, pattern string) ([]string, error)

	// ValidateRelPath validates a relative path for safety.
	ValidateRelPath(relPath string) error

	// ValidateIdentifier validates an identifier for safety.
	ValidateIdentifier(id string) error
}

// RealFS implements FS using actual OS operations.
type RealFS struct {
	// OnSkip, when set, is called for every entry Copy leaves out
	// (sockets and device files).
	OnSkip func(path string, mode os.FileMode)
}

// NewRealFS creates a new RealFS.
func NewRealFS() *RealFS {
	return &RealFS{}
}

// Lstat returns file info without following symlinks.
func (fs *RealFS) Lstat(path string) (os.FileInfo, error) {
	return os.Lstat(path)
}

// Stat returns file info, following symlinks.
func (fs *RealFS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// ReadDir lists the entries of a directory, sorted by name.
func (fs *RealFS) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

// MkdirAll creates a directory and all parent directories.
func (fs *RealFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// MkdirTemp creates a new, uniquely named temporary directory.
func (fs *RealFS) MkdirTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

// RemoveAll removes a path and all its contents.
// Read-only directories copied out of a keg are made writable and the
// removal retried once.
func (fs *RealFS) RemoveAll(path string) error {
	if err := os.RemoveAll(path); err == nil {
		return nil
	}
	_ = filepath.WalkDir(path, func(p string, d iofs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			_ = os.Chmod(p, 0755)
		}
		return nil
	})
	return os.RemoveAll(path)
}

// Chmod changes the permission bits of path.
func (fs *RealFS) Chmod(path string, mode os.FileMode) error {
	return os.Chmod(path, mode)
}

// Copy copies a file, symlink or directory tree from src to dst.
// src is inspected with Lstat, so a symlink is copied as a symlink.
func (fs *RealFS) Copy(src, dst string) error {
	srcInfo, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	// Check if destination exists and remove it if type mismatch
	dstInfo, err := os.Lstat(dst)
	if err == nil {
		if srcInfo.IsDir() != dstInfo.IsDir() || dstInfo.Mode()&os.ModeSymlink != 0 {
			if err := os.RemoveAll(dst); err != nil {
				return fmt.Errorf("failed to remove existing destination: %w", err)
			}
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat destination: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	switch {
	case srcInfo.Mode()&os.ModeSymlink != 0:
		return fs.copySymlink(src, dst)
	case srcInfo.IsDir():
		return fs.copyDir(src, dst, srcInfo.Mode())
	default:
		return fs.copyFile(src, dst, srcInfo.Mode())
	}
}

// copySymlink recreates the symlink at src as dst, pointing at the same target.
func (fs *RealFS) copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return fmt.Errorf("failed to read symlink: %w", err)
	}
	if _, err := os.Lstat(dst); err == nil {
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("failed to remove existing destination: %w", err)
		}
	}
	if err := os.Symlink(target, dst); err != nil {
		return fmt.Errorf("failed to create symlink: %w", err)
	}
	return nil
}

// copyFile copies a single regular file from src to dst. Named pipes are
// recreated; sockets and device files are skipped.
func (fs *RealFS) copyFile(src, dst string, mode os.FileMode) error {
	switch {
	case mode&os.ModeNamedPipe != 0:
		return fs.copyFifo(src, dst, mode)
	case !mode.IsRegular():
		fs.skip(src, mode)
		return nil
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer func() {
		_ = srcFile.Close()
	}()

	// Kegs often contain read-only files; replace rather than truncate.
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing destination: %w", err)
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	defer func() {
		_ = dstFile.Close()
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	// OpenFile applies the umask.
	return os.Chmod(dst, mode.Perm())
}

// copyFifo creates a named pipe at dst with the permissions of src.
func (fs *RealFS) copyFifo(src, dst string, mode os.FileMode) error {
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing destination: %w", err)
	}
	if err := mkfifo(dst, mode.Perm()); err != nil {
		if errors.Is(err, errors.ErrUnsupported) {
			fs.skip(src, mode)
			return nil
		}
		return fmt.Errorf("failed to create named pipe: %w", err)
	}
	return os.Chmod(dst, mode.Perm())
}

func (fs *RealFS) skip(path string, mode os.FileMode) {
	if fs.OnSkip != nil {
		fs.OnSkip(path, mode)
	}
}

// copyDir recursively copies a directory from src to dst.
func (fs *RealFS) copyDir(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	// Make sure we can write into a directory that already existed read-only.
	if err := os.Chmod(dst, 0755); err != nil {
		return fmt.Errorf("failed to prepare destination directory: %w", err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("failed to read source directory: %w", err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		info, err := os.Lstat(srcPath)
		if err != nil {
			return fmt.Errorf("failed to get entry info: %w", err)
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			err = fs.copySymlink(srcPath, dstPath)
		case info.IsDir():
			if existing, lerr := os.Lstat(dstPath); lerr == nil && !existing.IsDir() {
				if err := os.RemoveAll(dstPath); err != nil {
					return fmt.Errorf("failed to remove existing destination: %w", err)
				}
			}
			err = fs.copyDir(srcPath, dstPath, info.Mode())
		default:
			if existing, lerr := os.Lstat(dstPath); lerr == nil && existing.IsDir() {
				if err := os.RemoveAll(dstPath); err != nil {
					return fmt.Errorf("failed to remove existing destination: %w", err)
				}
			}
			err = fs.copyFile(srcPath, dstPath, info.Mode())
		}
		if err != nil {
			return err
		}
	}

	return os.Chmod(dst, mode.Perm())
}

// WriteFile writes data to path atomically using temp file + rename.
func (fs *RealFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	// Create temp file in the same directory as target
	tmpFile, err := os.CreateTemp(dir, ".brewpkg-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	// Success - don't clean up temp file
	tmpFile = nil
	return nil
}

// ReadFile reads the entire contents of a file.
func (fs *RealFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
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

// IsDir reports whether path resolves to a directory, following symlinks.
func (fs *RealFS) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsSymlink reports whether path itself is a symbolic link.
func (fs *RealFS) IsSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// Glob returns the full paths of the entries of dir whose names match pattern.
// A missing dir yields no matches.
func (fs *RealFS) Glob(dir, pattern string) ([]string, error) {
	g, err := glob.Compile(pattern, filepath.Separator)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var matches []string
	for _, entry := range entries {
		if g.Match(entry.Name()) {
			matches = append(matches, filepath.Join(dir, entry.Name()))
		}
	}
	return matches, nil
}

// ValidateRelPath validates a relative path for safety.
// Returns an error if the path is invalid or unsafe.
func (fs *RealFS) ValidateRelPath(relPath string) error {
	// Clean the path first
	cleaned := filepath.Clean(relPath)

	// Reject empty or current directory
	if cleaned == "" || cleaned == "." {
		return fmt.Errorf("invalid path: empty or current directory")
	}

	// Reject absolute paths
	if filepath.IsAbs(cleaned) {
		return fmt.Errorf("invalid path: must be relative, got absolute path %q", cleaned)
	}

	// Reject path traversal attempts
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("invalid path: path traversal not allowed in %q", cleaned)
	}

	return nil
}

// ValidateIdentifier validates an identifier (formula name, service name) for safety.
// Returns an error if the identifier contains invalid characters or path traversal attempts.
func (fs *RealFS) ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("invalid identifier: empty")
	}

	if strings.Contains(id, string(filepath.Separator)) || strings.Contains(id, "/") || strings.Contains(id, "\\") {
		return fmt.Errorf("invalid identifier: must not contain path separators")
	}

	if id == "." || id == ".." || (strings.HasPrefix(id, ".") && len(id) > 1 && id[1] == '.') {
		return fmt.Errorf("invalid identifier: path traversal not allowed")
	}

	return nil
}
