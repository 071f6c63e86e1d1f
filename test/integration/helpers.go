package integration

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/danieljhkim/brewpkg/internal/config"
	"github.com/danieljhkim/brewpkg/internal/engine"
	"github.com/danieljhkim/brewpkg/internal/execx"
	"github.com/danieljhkim/brewpkg/internal/formula"
	"github.com/danieljhkim/brewpkg/internal/fsops"
	"github.com/danieljhkim/brewpkg/internal/hash"
	"github.com/danieljhkim/brewpkg/internal/pkgbuild"
)

// fakePkgbuild stands in for pkgbuild. It writes the argument list to
// <output>.args and a sorted "<type> <path>" listing of the root to <output>.
const fakePkgbuild = `#!/bin/sh
out=""
root=""
for arg in "$@"; do
  echo "$arg" >> "$PKGBUILD_ARGS"
done
while [ $# -gt 0 ]; do
  case "$1" in
    --root) root="$2"; shift 2 ;;
    --identifier|--version|--scripts|--ownership) shift 2 ;;
    --quiet) shift ;;
    *) out="$1"; shift ;;
  esac
done
here=$(pwd)
cd "$root" || exit 2
{
  find . -type d | sed 's/^/d /'
  find . -type l | sed 's/^/l /'
  find . -type f | sed 's/^/f /'
} | sort > "$here/$out"
`

// failingPkgbuild always fails like a rejected pkgbuild run.
const failingPkgbuild = `#!/bin/sh
for arg in "$@"; do
  echo "$arg" >> "$PKGBUILD_ARGS"
done
echo "pkgbuild: error: invalid root" >&2
exit 3
`

// homebrew is an installed Homebrew prefix laid out under a temp dir.
type homebrew struct {
	t     *testing.T
	paths config.Paths
}

func newHomebrew(t *testing.T) *homebrew {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	return &homebrew{t: t, paths: config.NewPaths(filepath.Join(t.TempDir(), "usr", "local"), "")}
}

func (h *homebrew) path(rel string) string {
	return filepath.Join(h.paths.Prefix, rel)
}

func (h *homebrew) dir(rel string) {
	h.t.Helper()
	if err := os.MkdirAll(h.path(rel), 0755); err != nil {
		h.t.Fatalf("failed to create dir %s: %v", rel, err)
	}
}

func (h *homebrew) file(rel, content string) {
	h.t.Helper()
	h.dir(filepath.Dir(rel))
	if err := os.WriteFile(h.path(rel), []byte(content), 0644); err != nil {
		h.t.Fatalf("failed to create file %s: %v", rel, err)
	}
}

func (h *homebrew) symlink(target, rel string) {
	h.t.Helper()
	h.dir(filepath.Dir(rel))
	if err := os.Symlink(target, h.path(rel)); err != nil {
		h.t.Fatalf("failed to create symlink %s: %v", rel, err)
	}
}

// installed is the listing path of rel inside the staging root.
func (h *homebrew) installed(rel string) string {
	return "." + filepath.Join(h.paths.Prefix, rel)
}

// writeTool writes an executable script and returns its path.
func writeTool(t *testing.T, name, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// setupTestEngine wires the real stack against h and a manifest, running tool
// in place of pkgbuild. Arguments passed to tool are appended to argsFile.
func setupTestEngine(t *testing.T, h *homebrew, manifest formula.Manifest, tool string) (*engine.Engine, string) {
	t.Helper()
	argsFile := filepath.Join(t.TempDir(), "pkgbuild.args")
	t.Setenv("PKGBUILD_ARGS", argsFile)

	fs := fsops.NewRealFS()
	provider, err := formula.NewManifestProvider(fs, h.paths, manifest, "")
	if err != nil {
		t.Fatalf("NewManifestProvider() error = %v", err)
	}
	runner := execx.NewExecRunner(0, nil, nil)
	builder := pkgbuild.NewToolBuilder(runner, tool)

	eng := engine.New(provider, fs, builder, hash.NewSHA256Hasher(), h.paths, []string{"python"}, nil)
	return eng, argsFile
}

// readLines returns the lines of path as a set.
func readLines(t *testing.T, path string) map[string]bool {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	lines := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines[strings.TrimSpace(scanner.Text())] = true
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return lines
}

// readArgs returns the recorded pkgbuild arguments.
func readArgs(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}
