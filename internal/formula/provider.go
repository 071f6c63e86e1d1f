package formula

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/brewpkg/internal/config"
	"github.com/danieljhkim/brewpkg/internal/fsops"
)

// Provider supplies formula records.
type Provider interface {
	// Resolve looks up a formula by name. Unknown names return ErrNotFound.
	Resolve(ctx context.Context, name string) (*Record, error)

	// IsInstalled reports whether any version of the formula is installed.
	IsInstalled(ctx context.Context, r *Record) bool

	// RecursiveDependencies returns the dependency closure in dependency-graph order.
	RecursiveDependencies(ctx context.Context, r *Record) ([]Record, error)
}

// recordBuilder fills the filesystem-derived fields shared by all providers.
type recordBuilder struct {
	fs    fsops.FS
	paths config.Paths
}

func (b recordBuilder) build(name, version string, revision int, installed bool) (*Record, error) {
	if err := b.fs.ValidateIdentifier(name); err != nil {
		return nil, fmt.Errorf("invalid formula name %q: %w", name, err)
	}

	r := &Record{
		Name:       name,
		Version:    version,
		Revision:   revision,
		Installed:  installed,
		LinkedPath: b.paths.LinkedKegPath(name),
	}
	r.InstalledPath = b.paths.KegPath(name, r.EffectiveVersion())

	// Homebrew only treats a formula as opt-linked when opt/<name> is a symlink.
	if opt := b.paths.OptPath(name); b.fs.IsSymlink(opt) {
		r.OptPath = opt
	}

	service, err := b.kegService(r)
	if err != nil {
		return nil, err
	}
	r.Service = service
	return r, nil
}

// kegService reads the launchd plist Homebrew installs at the keg root.
func (b recordBuilder) kegService(r *Record) (*ServicePlist, error) {
	name := ServicePlistName(r.Name)
	path := filepath.Join(r.InstalledPath, name+".plist")

	exists, err := b.fs.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("failed to check service plist: %w", err)
	}
	if !exists {
		return nil, nil
	}

	content, err := b.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service plist: %w", err)
	}
	return &ServicePlist{Name: name, Content: content}, nil
}

// anyKegInstalled reports whether the cellar holds any keg for name.
func (b recordBuilder) anyKegInstalled(name string) bool {
	entries, err := b.fs.ReadDir(filepath.Join(b.paths.Cellar, name))
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if b.fs.IsDir(filepath.Join(b.paths.Cellar, name, entry.Name())) {
			return true
		}
	}
	return false
}
