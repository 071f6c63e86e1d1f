package formula

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/brewpkg/internal/config"
	"github.com/danieljhkim/brewpkg/internal/fsops"
)

const testManifest = `formulae:
  - name: foo
    version: 1.2.3
    revision: 2
    dependencies: [libbar, libbaz]
    service:
      file: foo.plist
  - name: libbar
    version: "0.9"
    dependencies: [libcore]
  - name: libbaz
    version: "4.1"
    dependencies: [libcore]
  - name: libcore
    version: "1.0"
    installed: true
`

func loadTestManifest(t *testing.T) (*ManifestProvider, config.Paths) {
	t.Helper()
	dir := t.TempDir()
	paths := config.NewPaths(filepath.Join(dir, "prefix"), "")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "brewpkg.yaml"), []byte(testManifest), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo.plist"), []byte("<plist>foo</plist>"), 0644))
	require.NoError(t, os.MkdirAll(paths.KegPath("foo", "1.2.3_2"), 0755))

	p, err := LoadManifest(fsops.NewRealFS(), paths, filepath.Join(dir, "brewpkg.yaml"))
	require.NoError(t, err)
	return p, paths
}

func TestManifestProvider_Resolve(t *testing.T) {
	p, paths := loadTestManifest(t)

	r, err := p.Resolve(context.Background(), "foo")
	require.NoError(t, err)

	assert.Equal(t, "1.2.3_2", r.EffectiveVersion())
	assert.Equal(t, paths.KegPath("foo", "1.2.3_2"), r.InstalledPath)
	assert.True(t, p.IsInstalled(context.Background(), r), "keg exists in cellar")
	require.NotNil(t, r.Service)
	assert.Equal(t, "homebrew.mxcl.foo", r.Service.Name)
	assert.Equal(t, "<plist>foo</plist>", string(r.Service.Content))
}

func TestManifestProvider_InstalledState(t *testing.T) {
	p, _ := loadTestManifest(t)

	bar, err := p.Resolve(context.Background(), "libbar")
	require.NoError(t, err)
	assert.False(t, bar.Installed, "no keg in cellar")

	core, err := p.Resolve(context.Background(), "libcore")
	require.NoError(t, err)
	assert.True(t, core.Installed, "explicit installed flag")
}

func TestManifestProvider_ResolveUnknown(t *testing.T) {
	p, _ := loadTestManifest(t)

	_, err := p.Resolve(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestManifestProvider_RecursiveDependencies(t *testing.T) {
	p, _ := loadTestManifest(t)

	root, err := p.Resolve(context.Background(), "foo")
	require.NoError(t, err)

	deps, err := p.RecursiveDependencies(context.Background(), root)
	require.NoError(t, err)

	var names []string
	for _, d := range deps {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"libcore", "libbar", "libbaz"}, names)
}

func TestManifestProvider_DependencyCycle(t *testing.T) {
	m := Manifest{Formulae: []ManifestFormula{
		{Name: "a", Version: "1", Dependencies: []string{"b"}},
		{Name: "b", Version: "1", Dependencies: []string{"a"}},
	}}
	p, err := NewManifestProvider(fsops.NewRealFS(), config.NewPaths(t.TempDir(), ""), m, "")
	require.NoError(t, err)

	_, err = p.RecursiveDependencies(context.Background(), &Record{Name: "a"})
	assert.ErrorContains(t, err, "cycle")
}

func TestNewManifestProvider_Validation(t *testing.T) {
	paths := config.NewPaths(t.TempDir(), "")
	fs := fsops.NewRealFS()

	tests := []struct {
		name     string
		formulae []ManifestFormula
	}{
		{"missing name", []ManifestFormula{{Version: "1"}}},
		{"missing version", []ManifestFormula{{Name: "foo"}}},
		{"duplicate", []ManifestFormula{{Name: "foo", Version: "1"}, {Name: "foo", Version: "2"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManifestProvider(fs, paths, Manifest{Formulae: tt.formulae}, "")
			assert.Error(t, err)
		})
	}
}
