package engine

import (
	"github.com/danieljhkim/brewpkg/internal/pkgbuild"
	"github.com/danieljhkim/brewpkg/internal/stage"
)

// BuildResult represents the result of packaging a formula.
type BuildResult struct {
	// Spec is the pkgbuild invocation (planned when DryRun)
	Spec pkgbuild.Spec `json:"spec"`

	// Packages lists the formulae staged, primary first
	Packages []string `json:"packages"`

	// Operations is the staging plan that was executed (or would be, if DryRun)
	Operations []stage.Operation `json:"operations"`

	// Warnings lists dropped optional inputs
	Warnings []string `json:"warnings,omitempty"`

	// Output is the path of the built package
	Output string `json:"output"`

	// SHA256 is the hex digest of Output; empty if DryRun
	SHA256 string `json:"sha256,omitempty"`

	// DryRun reports that nothing was staged or built
	DryRun bool `json:"dry_run"`
}
