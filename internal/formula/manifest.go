package formula

import (
	"context"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/brewpkg/internal/config"
	"github.com/danieljhkim/brewpkg/internal/fsops"
)

// Manifest describes installed formulae without querying brew.
//
//	formulae:
//	  - name: foo
//	    version: 1.2.3
//	    revision: 2
//	    dependencies: [bar]
//	    service:
//	      file: foo.plist
type Manifest struct {
	Formulae []ManifestFormula `yaml:"formulae"`
}

// ManifestFormula is one formula entry of a Manifest.
type ManifestFormula struct {
	Name         string           `yaml:"name"`
	Version      string           `yaml:"version"`
	Revision     int              `yaml:"revision"`
	Installed    *bool            `yaml:"installed,omitempty"`
	Dependencies []string         `yaml:"dependencies,omitempty"`
	Service      *ManifestService `yaml:"service,omitempty"`
}

// ManifestService declares a launchd descriptor inline or by file.
type ManifestService struct {
	Name    string `yaml:"name,omitempty"`
	Content string `yaml:"content,omitempty"`
	File    string `yaml:"file,omitempty"`
}

// ManifestProvider resolves formulae from a Manifest. Installation state is
// read from the cellar unless the manifest sets it explicitly.
type ManifestProvider struct {
	formulae map[string]ManifestFormula
	baseDir  string
	rb       recordBuilder
}

// LoadManifest reads a YAML manifest from path.
func LoadManifest(fs fsops.FS, paths config.Paths, path string) (*ManifestProvider, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return NewManifestProvider(fs, paths, m, filepath.Dir(path))
}

// NewManifestProvider creates a provider for m. Relative service files are
// resolved against baseDir.
func NewManifestProvider(fs fsops.FS, paths config.Paths, m Manifest, baseDir string) (*ManifestProvider, error) {
	p := &ManifestProvider{
		formulae: make(map[string]ManifestFormula, len(m.Formulae)),
		baseDir:  baseDir,
		rb:       recordBuilder{fs: fs, paths: paths},
	}
	for _, f := range m.Formulae {
		if f.Name == "" {
			return nil, fmt.Errorf("manifest entry without a name")
		}
		if f.Version == "" {
			return nil, fmt.Errorf("manifest entry %s: version is required", f.Name)
		}
		if _, dup := p.formulae[f.Name]; dup {
			return nil, fmt.Errorf("manifest entry %s: duplicate formula", f.Name)
		}
		p.formulae[f.Name] = f
	}
	return p, nil
}

// Resolve looks up a formula in the manifest.
func (p *ManifestProvider) Resolve(_ context.Context, name string) (*Record, error) {
	f, ok := p.formulae[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	installed := p.rb.anyKegInstalled(name)
	if f.Installed != nil {
		installed = *f.Installed
	}

	r, err := p.rb.build(f.Name, f.Version, f.Revision, installed)
	if err != nil {
		return nil, err
	}

	if f.Service != nil {
		service, err := p.service(f)
		if err != nil {
			return nil, err
		}
		r.Service = service
	}
	return r, nil
}

// IsInstalled reports the installation state computed by Resolve.
func (p *ManifestProvider) IsInstalled(_ context.Context, r *Record) bool {
	return r != nil && r.Installed
}

// RecursiveDependencies walks the manifest dependency graph, emitting each
// dependency after its own dependencies. Repeated formulae are emitted once.
func (p *ManifestProvider) RecursiveDependencies(ctx context.Context, r *Record) ([]Record, error) {
	var (
		deps     []Record
		visited  = map[string]bool{r.Name: true}
		visiting = map[string]bool{r.Name: true}
	)

	var visit func(name string) error
	visit = func(name string) error {
		f, ok := p.formulae[name]
		if !ok {
			return fmt.Errorf("dependency %s: %w", name, ErrNotFound)
		}
		for _, dep := range f.Dependencies {
			if visiting[dep] {
				return fmt.Errorf("dependency cycle through %s and %s", name, dep)
			}
			if visited[dep] {
				continue
			}
			visited[dep] = true
			visiting[dep] = true
			if err := visit(dep); err != nil {
				return err
			}
			visiting[dep] = false

			rec, err := p.Resolve(ctx, dep)
			if err != nil {
				return err
			}
			deps = append(deps, *rec)
		}
		return nil
	}

	if err := visit(r.Name); err != nil {
		return nil, err
	}
	return deps, nil
}

func (p *ManifestProvider) service(f ManifestFormula) (*ServicePlist, error) {
	name := f.Service.Name
	if name == "" {
		name = ServicePlistName(f.Name)
	}
	if err := p.rb.fs.ValidateIdentifier(name); err != nil {
		return nil, fmt.Errorf("invalid service name for %s: %w", f.Name, err)
	}

	content := []byte(f.Service.Content)
	if f.Service.File != "" {
		path := f.Service.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.baseDir, path)
		}
		data, err := p.rb.fs.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read service plist for %s: %w", f.Name, err)
		}
		content = data
	}
	return &ServicePlist{Name: name, Content: content}, nil
}
