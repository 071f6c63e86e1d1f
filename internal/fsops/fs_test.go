package fsops

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRealFS_ValidateRelPath(t *testing.T) {
	fs := &RealFS{}

	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{
			name:      "valid relative path",
			path:      "foo/bar/baz.txt",
			wantError: false,
		},
		{
			name:      "valid single file",
			path:      "file.txt",
			wantError: false,
		},
		{
			name:      "empty path",
			path:      "",
			wantError: true,
		},
		{
			name:      "current directory",
			path:      ".",
			wantError: true,
		},
		{
			name:      "absolute path",
			path:      "/etc/hosts",
			wantError: true,
		},
		{
			name:      "parent directory traversal",
			path:      "../etc/hosts",
			wantError: true,
		},
		{
			name:      "traversal in middle",
			path:      "foo/../../../etc/hosts",
			wantError: true,
		},
		{
			name:      "path with dot prefix",
			path:      ".hidden/file.txt",
			wantError: false,
		},
		{
			name:      "deeply nested path",
			path:      "a/b/c/d/e/f/g.txt",
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fs.ValidateRelPath(tt.path)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateRelPath(%q) error = %v, wantError %v", tt.path, err, tt.wantError)
			}
		})
	}
}

func TestRealFS_ValidateIdentifier(t *testing.T) {
	fs := &RealFS{}

	tests := []struct {
		name      string
		id        string
		wantError bool
	}{
		{
			name:      "formula with version qualifier",
			id:        "python@3.11",
			wantError: false,
		},
		{
			name:      "service descriptor name",
			id:        "homebrew.mxcl.nginx",
			wantError: false,
		},
		{
			name:      "valid alphanumeric",
			id:        "openssl3",
			wantError: false,
		},
		{
			name:      "empty identifier",
			id:        "",
			wantError: true,
		},
		{
			name:      "current directory",
			id:        ".",
			wantError: true,
		},
		{
			name:      "parent directory",
			id:        "..",
			wantError: true,
		},
		{
			name:      "path with separator",
			id:        "homebrew/core",
			wantError: true,
		},
		{
			name:      "path with backslash",
			id:        "core\\nginx",
			wantError: true,
		},
		{
			name:      "absolute path",
			id:        "/etc/hosts",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fs.ValidateIdentifier(tt.id)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantError %v", tt.id, err, tt.wantError)
			}
		})
	}
}

func TestRealFS_Exists(t *testing.T) {
	fs := &RealFS{}

	tmpDir, err := os.MkdirTemp("", "fsops-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	t.Run("existing file", func(t *testing.T) {
		testFile := filepath.Join(tmpDir, "exists.txt")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		exists, err := fs.Exists(testFile)
		if err != nil {
			t.Errorf("Exists returned error: %v", err)
		}
		if !exists {
			t.Error("Exists should return true for existing file")
		}
	})

	t.Run("non-existing file", func(t *testing.T) {
		nonExistent := filepath.Join(tmpDir, "does-not-exist.txt")
		exists, err := fs.Exists(nonExistent)
		if err != nil {
			t.Errorf("Exists returned error: %v", err)
		}
		if exists {
			t.Error("Exists should return false for non-existing file")
		}
	})

	t.Run("existing directory", func(t *testing.T) {
		exists, err := fs.Exists(tmpDir)
		if err != nil {
			t.Errorf("Exists returned error: %v", err)
		}
		if !exists {
			t.Error("Exists should return true for existing directory")
		}
	})
}

func TestRealFS_MkdirAll(t *testing.T) {
	fs := &RealFS{}

	tmpDir, err := os.MkdirTemp("", "fsops-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	t.Run("create nested directories", func(t *testing.T) {
		nestedPath := filepath.Join(tmpDir, "a", "b", "c")
		err := fs.MkdirAll(nestedPath, 0755)
		if err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}

		// Verify directory exists
		if _, err := os.Stat(nestedPath); os.IsNotExist(err) {
			t.Error("Nested directory was not created")
		}
	})

	t.Run("idempotent operation", func(t *testing.T) {
		dirPath := filepath.Join(tmpDir, "existing")

		// Create once
		if err := fs.MkdirAll(dirPath, 0755); err != nil {
			t.Fatalf("First MkdirAll failed: %v", err)
		}

		// Create again - should not fail
		if err := fs.MkdirAll(dirPath, 0755); err != nil {
			t.Errorf("Second MkdirAll should not fail: %v", err)
		}
	})
}

func TestRealFS_WriteFile(t *testing.T) {
	fs := &RealFS{}
	tmpDir := t.TempDir()

	t.Run("write to new file in missing directory", func(t *testing.T) {
		testFile := filepath.Join(tmpDir, "Library", "LaunchDaemons", "homebrew.mxcl.foo.plist")
		content := []byte("<plist/>")

		if err := fs.WriteFile(testFile, content, 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		readContent, err := os.ReadFile(testFile)
		if err != nil {
			t.Fatalf("failed to read written file: %v", err)
		}
		if string(readContent) != string(content) {
			t.Errorf("File content mismatch: got %q, want %q", readContent, content)
		}
	})

	t.Run("overwrite existing file", func(t *testing.T) {
		testFile := filepath.Join(tmpDir, "overwrite.txt")
		if err := os.WriteFile(testFile, []byte("initial"), 0644); err != nil {
			t.Fatalf("failed to create initial file: %v", err)
		}

		if err := fs.WriteFile(testFile, []byte("overwritten"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		readContent, err := os.ReadFile(testFile)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if string(readContent) != "overwritten" {
			t.Errorf("File content not updated: got %q", readContent)
		}
	})
}

func TestRealFS_CopySymlinkIsNotDereferenced(t *testing.T) {
	fs := &RealFS{}
	tmpDir := t.TempDir()

	target := filepath.Join(tmpDir, "real")
	if err := os.WriteFile(target, []byte("binary"), 0755); err != nil {
		t.Fatalf("failed to create target: %v", err)
	}
	link := filepath.Join(tmpDir, "link")
	if err := os.Symlink("../Cellar/foo/1.0/bin/foo", link); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	dst := filepath.Join(tmpDir, "staging", "bin", "foo")
	if err := fs.Copy(link, dst); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}

	info, err := os.Lstat(dst)
	if err != nil {
		t.Fatalf("Lstat failed: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatalf("expected symlink at %s, got mode %s", dst, info.Mode())
	}
	got, err := os.Readlink(dst)
	if err != nil {
		t.Fatalf("Readlink failed: %v", err)
	}
	if got != "../Cellar/foo/1.0/bin/foo" {
		t.Errorf("link target = %q, want %q", got, "../Cellar/foo/1.0/bin/foo")
	}

	// Copying again over the existing link must succeed.
	if err := fs.Copy(link, dst); err != nil {
		t.Errorf("second Copy failed: %v", err)
	}
}

func TestRealFS_CopyDirectoryTree(t *testing.T) {
	fs := &RealFS{}
	tmpDir := t.TempDir()

	src := filepath.Join(tmpDir, "Cellar", "foo", "1.0")
	if err := os.MkdirAll(filepath.Join(src, "bin"), 0755); err != nil {
		t.Fatalf("failed to create source tree: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "bin", "foo"), []byte("#!/bin/sh\n"), 0555); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := os.Symlink("foo", filepath.Join(src, "bin", "foo-alias")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	dst := filepath.Join(tmpDir, "staging", "Cellar", "foo", "1.0")
	if err := fs.Copy(src, dst); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dst, "bin", "foo"))
	if err != nil {
		t.Fatalf("copied file missing: %v", err)
	}
	if info.Mode().Perm() != 0555 {
		t.Errorf("copied file mode = %o, want 555", info.Mode().Perm())
	}

	linkInfo, err := os.Lstat(filepath.Join(dst, "bin", "foo-alias"))
	if err != nil {
		t.Fatalf("copied symlink missing: %v", err)
	}
	if linkInfo.Mode()&os.ModeSymlink == 0 {
		t.Error("nested symlink was dereferenced")
	}

	// Copying the same keg twice happens when a dependency closure repeats.
	if err := fs.Copy(src, dst); err != nil {
		t.Errorf("repeated Copy over read-only files failed: %v", err)
	}
}

func TestRealFS_Glob(t *testing.T) {
	fs := &RealFS{}
	tmpDir := t.TempDir()

	for _, name := range []string{"python@3.11", "python@3.12", "pythonista", "ruby", "cpython-tools"} {
		if err := os.Symlink("../../Cellar/"+name, filepath.Join(tmpDir, name)); err != nil {
			t.Fatalf("failed to create symlink: %v", err)
		}
	}

	matches, err := fs.Glob(tmpDir, "*python*")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}

	want := []string{
		filepath.Join(tmpDir, "cpython-tools"),
		filepath.Join(tmpDir, "python@3.11"),
		filepath.Join(tmpDir, "python@3.12"),
		filepath.Join(tmpDir, "pythonista"),
	}
	if len(matches) != len(want) {
		t.Fatalf("Glob returned %v, want %v", matches, want)
	}
	for i := range want {
		if matches[i] != want[i] {
			t.Errorf("match[%d] = %q, want %q", i, matches[i], want[i])
		}
	}

	t.Run("missing directory", func(t *testing.T) {
		matches, err := fs.Glob(filepath.Join(tmpDir, "nope"), "*")
		if err != nil {
			t.Errorf("Glob on missing dir returned error: %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("expected no matches, got %v", matches)
		}
	})
}

func TestRealFS_IsDirAndIsSymlink(t *testing.T) {
	fs := &RealFS{}
	tmpDir := t.TempDir()

	dir := filepath.Join(tmpDir, "dir")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	dirLink := filepath.Join(tmpDir, "dir-link")
	if err := os.Symlink(dir, dirLink); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}
	file := filepath.Join(tmpDir, "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	tests := []struct {
		path        string
		wantDir     bool
		wantSymlink bool
	}{
		{dir, true, false},
		{dirLink, true, true},
		{file, false, false},
		{filepath.Join(tmpDir, "missing"), false, false},
	}
	for _, tt := range tests {
		if got := fs.IsDir(tt.path); got != tt.wantDir {
			t.Errorf("IsDir(%s) = %v, want %v", filepath.Base(tt.path), got, tt.wantDir)
		}
		if got := fs.IsSymlink(tt.path); got != tt.wantSymlink {
			t.Errorf("IsSymlink(%s) = %v, want %v", filepath.Base(tt.path), got, tt.wantSymlink)
		}
	}
}

func TestRealFS_RemoveAllReadOnlyTree(t *testing.T) {
	fs := &RealFS{}
	tmpDir := t.TempDir()

	root := filepath.Join(tmpDir, "brew-pkg")
	locked := filepath.Join(root, "Cellar", "foo", "1.0", "share")
	if err := os.MkdirAll(locked, 0755); err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}
	if err := os.WriteFile(filepath.Join(locked, "data"), []byte("x"), 0444); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := os.Chmod(locked, 0555); err != nil {
		t.Fatalf("failed to chmod: %v", err)
	}

	if err := fs.RemoveAll(root); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if _, err := os.Lstat(root); !os.IsNotExist(err) {
		t.Error("root should have been removed")
	}
}
