package stage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danieljhkim/brewpkg/internal/config"
	"github.com/danieljhkim/brewpkg/internal/formula"
	"github.com/danieljhkim/brewpkg/internal/fsops"
)

// homebrew is a throwaway Homebrew prefix laid out on disk.
type homebrew struct {
	t     *testing.T
	paths config.Paths
}

func newHomebrew(t *testing.T) *homebrew {
	t.Helper()
	return &homebrew{t: t, paths: config.NewPaths(filepath.Join(t.TempDir(), "usr", "local"), "")}
}

func (h *homebrew) dir(rel string) string {
	h.t.Helper()
	path := filepath.Join(h.paths.Prefix, rel)
	if err := os.MkdirAll(path, 0755); err != nil {
		h.t.Fatalf("failed to create dir %s: %v", rel, err)
	}
	return path
}

func (h *homebrew) file(rel, content string) string {
	h.t.Helper()
	path := filepath.Join(h.paths.Prefix, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("failed to create parent of %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		h.t.Fatalf("failed to create file %s: %v", rel, err)
	}
	return path
}

func (h *homebrew) symlink(target, rel string) string {
	h.t.Helper()
	path := filepath.Join(h.paths.Prefix, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("failed to create parent of %s: %v", rel, err)
	}
	if err := os.Symlink(target, path); err != nil {
		h.t.Fatalf("failed to create symlink %s: %v", rel, err)
	}
	return path
}

// record returns an installed record for name whose keg lives in the cellar.
func (h *homebrew) record(name, version string) formula.Record {
	r := formula.Record{Name: name, Version: version, Installed: true}
	r.InstalledPath = h.paths.KegPath(name, r.EffectiveVersion())
	r.LinkedPath = h.paths.LinkedKegPath(name)
	return r
}

func (h *homebrew) stager(opts Options) *Stager {
	return NewStager(fsops.NewRealFS(), h.paths, nil, opts)
}

func (h *homebrew) plan() *Plan {
	return NewPlan(filepath.Join(h.t.TempDir(), "brew-pkg"), h.paths.Prefix)
}

// opsByDest indexes operations by RelPath below the prefix root.
func opsByDest(t *testing.T, plan *Plan) map[string]Operation {
	t.Helper()
	byDest := make(map[string]Operation, len(plan.Operations))
	for _, op := range plan.Operations {
		rel, err := filepath.Rel(plan.PrefixRoot, op.DestPath)
		if err != nil {
			t.Fatalf("destination %s outside prefix root: %v", op.DestPath, err)
		}
		byDest[rel] = op
	}
	return byDest
}
