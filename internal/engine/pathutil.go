package engine

import (
	"fmt"
	"path/filepath"
	"strings"
)

// resolveUserPath resolves a user-provided path (absolute, relative, or containing "..")
// against cwd. An empty path stays empty.
func resolveUserPath(userPath, cwd string) string {
	if userPath == "" {
		return ""
	}
	if filepath.IsAbs(userPath) || cwd == "" {
		return filepath.Clean(userPath)
	}
	return filepath.Join(cwd, userPath)
}

// stagingRelative resolves dest to a clean path relative to the staging root.
// It rejects paths that escape the root or resolve to the root itself.
func stagingRelative(root, dest string) (string, error) {
	root = filepath.Clean(root)
	dest = filepath.Clean(dest)

	relPath, err := filepath.Rel(root, dest)
	if err != nil {
		return "", fmt.Errorf("failed to compute staging-relative path for %q: %w", dest, err)
	}

	// Reject paths outside the staging root
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the staging root %q", dest, root)
	}

	// Reject the staging root itself
	if relPath == "." {
		return "", fmt.Errorf("path %q resolves to the staging root", dest)
	}

	return relPath, nil
}
