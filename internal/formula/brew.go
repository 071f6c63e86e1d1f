package formula

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/danieljhkim/brewpkg/internal/config"
	"github.com/danieljhkim/brewpkg/internal/execx"
	"github.com/danieljhkim/brewpkg/internal/fsops"
)

// brewInfo is the subset of `brew info --json=v2` brewpkg reads.
type brewInfo struct {
	Formulae []brewFormula `json:"formulae"`
}

type brewFormula struct {
	Name     string `json:"name"`
	Versions struct {
		Stable string `json:"stable"`
	} `json:"versions"`
	Revision  int `json:"revision"`
	Installed []struct {
		Version string `json:"version"`
	} `json:"installed"`
}

// BrewProvider resolves formulae by querying the brew CLI.
type BrewProvider struct {
	runner execx.Runner
	brew   string
	rb     recordBuilder
}

// NewBrewProvider creates a BrewProvider that runs the brew binary at brewPath.
func NewBrewProvider(runner execx.Runner, brewPath string, fs fsops.FS, paths config.Paths) *BrewProvider {
	if brewPath == "" {
		brewPath = "brew"
	}
	return &BrewProvider{
		runner: runner,
		brew:   brewPath,
		rb:     recordBuilder{fs: fs, paths: paths},
	}
}

// Resolve looks up a formula with `brew info`.
func (p *BrewProvider) Resolve(ctx context.Context, name string) (*Record, error) {
	formulae, err := p.info(ctx, name)
	if err != nil {
		return nil, err
	}
	return p.toRecord(formulae[0])
}

// IsInstalled reports whether brew listed any installed version.
func (p *BrewProvider) IsInstalled(_ context.Context, r *Record) bool {
	return r != nil && r.Installed
}

// RecursiveDependencies lists the closure with `brew deps --topological` and
// resolves every dependency with a single `brew info` call.
func (p *BrewProvider) RecursiveDependencies(ctx context.Context, r *Record) ([]Record, error) {
	out, err := p.runner.Output(ctx, p.brew, "deps", "--topological", r.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to list dependencies of %s: %w", r.Name, err)
	}

	names := strings.Fields(string(out))
	if len(names) == 0 {
		return nil, nil
	}

	formulae, err := p.info(ctx, names...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dependencies of %s: %w", r.Name, err)
	}

	byName := make(map[string]brewFormula, len(formulae))
	for _, f := range formulae {
		byName[f.Name] = f
	}

	deps := make([]Record, 0, len(names))
	for _, name := range names {
		f, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("dependency %s: %w", name, ErrNotFound)
		}
		rec, err := p.toRecord(f)
		if err != nil {
			return nil, err
		}
		deps = append(deps, *rec)
	}
	return deps, nil
}

func (p *BrewProvider) info(ctx context.Context, names ...string) ([]brewFormula, error) {
	args := append([]string{"info", "--json=v2", "--formula"}, names...)
	out, err := p.runner.Output(ctx, p.brew, args...)
	if err != nil {
		var exitErr *execx.ExitError
		if errors.As(err, &exitErr) && isUnknownFormula(exitErr.Stderr) {
			return nil, fmt.Errorf("%s: %w", strings.Join(names, ", "), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query brew: %w", err)
	}

	var info brewInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("failed to parse brew info output: %w", err)
	}
	if len(info.Formulae) == 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(names, ", "), ErrNotFound)
	}
	return info.Formulae, nil
}

func (p *BrewProvider) toRecord(f brewFormula) (*Record, error) {
	return p.rb.build(f.Name, f.Versions.Stable, f.Revision, len(f.Installed) > 0)
}

func isUnknownFormula(stderr string) bool {
	return strings.Contains(stderr, "No available formula") ||
		strings.Contains(stderr, "No formulae or casks found") ||
		strings.Contains(stderr, "No formulae found")
}
