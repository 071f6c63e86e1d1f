// Package formula resolves installed Homebrew formulae into Records.
//
// A Record is a read-only view of one installed formula: its versioned keg,
// the maintenance symlinks Homebrew keeps for it and an optional launchd
// service descriptor. Records come from a Provider, either the brew CLI or a
// YAML manifest describing the installation.
package formula

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates a formula name did not resolve.
	ErrNotFound = errors.New("formula not found")
)

// QualifierSeparator separates a formula's base name from its version qualifier.
const QualifierSeparator = "@"

// ServicePlist is a launchd service descriptor shipped with a formula.
type ServicePlist struct {
	// Name is the descriptor name without the .plist extension
	Name string

	// Content is written verbatim into the package
	Content []byte
}

// Record describes one installed formula.
type Record struct {
	Name     string
	Version  string
	Revision int

	// Installed is true when any version of the formula is installed.
	Installed bool

	// InstalledPath is the versioned keg directory.
	InstalledPath string

	// LinkedPath is the linked-keg marker; it may not exist.
	LinkedPath string

	// OptPath is the opt symlink; empty when the formula is not opt-linked.
	OptPath string

	Service *ServicePlist

	// Dependencies is only populated when dependency inclusion is requested.
	Dependencies []Record
}

// EffectiveVersion returns the version including a non-zero revision.
func (r Record) EffectiveVersion() string {
	if r.Revision != 0 {
		return fmt.Sprintf("%s_%d", r.Version, r.Revision)
	}
	return r.Version
}

// BaseName returns the name before any version qualifier ("python@3.11" -> "python").
func (r Record) BaseName() string {
	base, _, _ := strings.Cut(r.Name, QualifierSeparator)
	return base
}

// Qualifier returns the version qualifier after the separator ("python@3.11" -> "3.11").
func (r Record) Qualifier() string {
	_, qualifier, _ := strings.Cut(r.Name, QualifierSeparator)
	return qualifier
}

// ServicePlistName returns Homebrew's launchd label for a formula.
func ServicePlistName(name string) string {
	return "homebrew.mxcl." + name
}
