package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/brewpkg/internal/config"
	"github.com/danieljhkim/brewpkg/internal/pkgbuild"
	"github.com/danieljhkim/brewpkg/internal/stage"
)

// stagingPattern names the temporary staging root.
const stagingPattern = "brew-pkg"

// Build packages an installed formula, and optionally its dependencies, into
// an installer package.
//
// The staging root is created fresh for every call and removed on every exit
// path, including failures and dry runs. pkgbuild is invoked at most once.
func (e *Engine) Build(ctx context.Context, req *BuildRequest) (result *BuildResult, err error) {
	if req == nil || req.Formula == "" {
		return nil, fmt.Errorf("%w: formula name is required", ErrValidation)
	}
	if err := e.fs.ValidateIdentifier(req.Formula); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	records, err := stage.SelectPackages(ctx, e.provider, req.Formula, req.WithDeps)
	if err != nil {
		return nil, err
	}
	primary := records[0]

	root, err := e.fs.MkdirTemp("", stagingPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create staging root: %w", ErrStaging, err)
	}
	defer func() {
		if rmErr := e.fs.RemoveAll(root); rmErr != nil {
			e.logger.Error("Failed to remove staging root", "path", root, "err", rmErr)
			err = errors.Join(err, fmt.Errorf("%w %s: %w", ErrTeardown, root, rmErr))
		}
	}()

	plan := stage.NewPlan(root, e.paths.Prefix)
	stager := stage.NewStager(e.fs, e.paths, e.logger, stage.Options{
		WithoutKegs:  req.WithoutKegs,
		Interpreters: e.interpreters,
	})
	for _, record := range records {
		if err := stager.PlanPackage(plan, record); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStaging, err)
		}
	}

	opts, err := pkgbuild.ResolveOptions(e.fs, resolveUserPath(req.ScriptsPath, req.CWD), req.Ownership)
	if err != nil {
		return nil, err
	}
	for _, warning := range opts.Warnings {
		e.logger.Warn(warning)
	}
	for _, script := range opts.Scripts {
		e.logger.Info(fmt.Sprintf("Adding %s script", script), "path", filepath.Join(opts.ScriptsPath, script))
	}
	if opts.Ownership != "" {
		e.logger.Info("Setting pkgbuild option --ownership", "value", opts.Ownership)
	}

	prefix := config.NormalizeIdentifierPrefix(req.IdentifierPrefix)
	spec := pkgbuild.NewSpec(root, prefix, primary.Name, primary.EffectiveVersion(), opts)

	outDir := resolveUserPath(req.OutputDir, req.CWD)
	if outDir == "" {
		outDir = req.CWD
	}

	result = &BuildResult{
		Spec:       spec,
		Packages:   plan.Packages,
		Operations: plan.Operations,
		Warnings:   opts.Warnings,
		Output:     filepath.Join(outDir, spec.Output),
		DryRun:     req.DryRun,
	}

	if req.DryRun {
		e.logger.Debug("Dry run, skipping staging and pkgbuild", "operations", len(plan.Operations))
		return result, nil
	}

	if err := e.fs.MkdirAll(plan.PrefixRoot, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create %s: %w", ErrStaging, plan.PrefixRoot, err)
	}
	for _, op := range plan.Operations {
		if err := e.executeOperation(plan, op); err != nil {
			return nil, fmt.Errorf("%w: %s %s: %w", ErrStaging, op.Type, op.RelPath, err)
		}
	}

	e.logger.Info("Building package", "file", spec.Output, "identifier", spec.Identifier)
	if err := e.builder.Build(ctx, outDir, spec); err != nil {
		return nil, err
	}

	sum, err := e.hasher.HashFile(result.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", result.Output, err)
	}
	result.SHA256 = sum

	return result, nil
}
