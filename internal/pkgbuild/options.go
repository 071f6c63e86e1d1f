// Package pkgbuild assembles installer packages with Apple's pkgbuild tool.
//
// It validates the optional scripts and ownership inputs, renders the
// pkgbuild argument list and runs the tool against a populated staging root.
// Invalid optional inputs are reported as warnings and dropped; only a failed
// pkgbuild run is fatal.
package pkgbuild

import (
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/brewpkg/internal/fsops"
)

// Ownership is a pkgbuild --ownership mode.
type Ownership string

// Supported ownership modes.
const (
	OwnershipRecommended   Ownership = "recommended"
	OwnershipPreserve      Ownership = "preserve"
	OwnershipPreserveOther Ownership = "preserve-other"
)

// Script names pkgbuild picks up from a --scripts directory.
var scriptNames = []string{"preinstall", "postinstall"}

// ScriptMode is applied to every script found.
const ScriptMode = 0755

// ParseOwnership validates an ownership mode. The second result is false for
// unknown values.
func ParseOwnership(value string) (Ownership, bool) {
	switch o := Ownership(value); o {
	case OwnershipRecommended, OwnershipPreserve, OwnershipPreserveOther:
		return o, true
	default:
		return "", false
	}
}

// Options are the optional pkgbuild inputs after validation.
type Options struct {
	// ScriptsPath is empty unless at least one script was found
	ScriptsPath string

	// Scripts lists the scripts found, e.g. ["postinstall"]
	Scripts []string

	// Ownership is empty unless a valid mode was given
	Ownership Ownership

	// Warnings describes every input that was dropped
	Warnings []string
}

// ResolveOptions validates scriptsPath and ownership. Scripts found are made
// executable. Neither input can fail the build; problems become warnings.
func ResolveOptions(fs fsops.FS, scriptsPath, ownership string) (*Options, error) {
	opts := &Options{}

	if scriptsPath != "" {
		found, err := prepareScripts(fs, scriptsPath)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			opts.Warnings = append(opts.Warnings, fmt.Sprintf("No scripts found in %s", scriptsPath))
		} else {
			opts.ScriptsPath = scriptsPath
			opts.Scripts = found
		}
	}

	if ownership != "" {
		if o, ok := ParseOwnership(ownership); ok {
			opts.Ownership = o
		} else {
			opts.Warnings = append(opts.Warnings,
				fmt.Sprintf("%s is not a valid value for pkgbuild --ownership option, ignoring", ownership))
		}
	}

	return opts, nil
}

// prepareScripts marks the scripts in dir executable and returns their names.
func prepareScripts(fs fsops.FS, dir string) ([]string, error) {
	if !fs.IsDir(dir) {
		return nil, nil
	}

	var found []string
	for _, name := range scriptNames {
		path := filepath.Join(dir, name)
		// Follows symlinks; dangling links and non-files count as absent.
		info, err := fs.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if err := fs.Chmod(path, ScriptMode); err != nil {
			return nil, fmt.Errorf("failed to make %s executable: %w", name, err)
		}
		found = append(found, name)
	}
	return found, nil
}
