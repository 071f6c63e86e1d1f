package pkgbuild

import (
	"context"
	"errors"
	"fmt"

	"github.com/danieljhkim/brewpkg/internal/execx"
)

// ErrBuildFailed indicates pkgbuild did not produce a package.
var ErrBuildFailed = errors.New("pkgbuild failed")

// Spec is the final build instruction handed to pkgbuild.
type Spec struct {
	Root        string    `json:"root"`
	Identifier  string    `json:"identifier"`
	Version     string    `json:"version"`
	ScriptsPath string    `json:"scripts_path,omitempty"`
	Ownership   Ownership `json:"ownership,omitempty"`
	Output      string    `json:"output"`
}

// OutputName returns the package file name for a formula.
func OutputName(name, version string) string {
	return fmt.Sprintf("%s-%s.pkg", name, version)
}

// NewSpec builds a Spec for formula name from validated options.
func NewSpec(root, identifierPrefix, name, version string, opts *Options) Spec {
	spec := Spec{
		Root:       root,
		Identifier: identifierPrefix + "." + name,
		Version:    version,
		Output:     OutputName(name, version),
	}
	if opts != nil {
		spec.ScriptsPath = opts.ScriptsPath
		spec.Ownership = opts.Ownership
	}
	return spec
}

// Args renders the pkgbuild argument list.
func (s Spec) Args() []string {
	args := []string{
		"--quiet",
		"--root", s.Root,
		"--identifier", s.Identifier,
		"--version", s.Version,
	}
	if s.ScriptsPath != "" {
		args = append(args, "--scripts", s.ScriptsPath)
	}
	if s.Ownership != "" {
		args = append(args, "--ownership", string(s.Ownership))
	}
	return append(args, s.Output)
}

// Builder produces an installer package from a Spec.
type Builder interface {
	// Build runs synchronously and writes spec.Output into dir.
	Build(ctx context.Context, dir string, spec Spec) error
}

// ToolBuilder implements Builder by running the pkgbuild binary.
type ToolBuilder struct {
	runner execx.Runner
	tool   string
}

// NewToolBuilder creates a ToolBuilder running the pkgbuild binary at tool.
func NewToolBuilder(runner execx.Runner, tool string) *ToolBuilder {
	if tool == "" {
		tool = "pkgbuild"
	}
	return &ToolBuilder{runner: runner, tool: tool}
}

// Build runs pkgbuild once. A non-zero exit is reported as ErrBuildFailed.
func (b *ToolBuilder) Build(ctx context.Context, dir string, spec Spec) error {
	if err := b.runner.Run(ctx, dir, b.tool, spec.Args()...); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBuildFailed, spec.Output, err)
	}
	return nil
}
