package stage

import (
	"context"
	"errors"
	"fmt"

	"github.com/danieljhkim/brewpkg/internal/formula"
)

// ErrNotInstalled indicates the primary formula is not installed.
var ErrNotInstalled = errors.New("not installed")

// SelectPackages returns the primary formula followed, when withDeps is set,
// by its recursive dependencies in provider order. Dependencies that are not
// installed are kept; the stagers skip kegs that do not exist.
func SelectPackages(ctx context.Context, provider formula.Provider, name string, withDeps bool) ([]formula.Record, error) {
	primary, err := provider.Resolve(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", name, err)
	}

	if !provider.IsInstalled(ctx, primary) {
		return nil, fmt.Errorf("%s is %w. First install it with 'brew install %s'", name, ErrNotInstalled, name)
	}

	if withDeps {
		deps, err := provider.RecursiveDependencies(ctx, primary)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve dependencies of %s: %w", name, err)
		}
		primary.Dependencies = deps
	}

	records := make([]formula.Record, 0, 1+len(primary.Dependencies))
	records = append(records, *primary)
	records = append(records, primary.Dependencies...)
	return records, nil
}
