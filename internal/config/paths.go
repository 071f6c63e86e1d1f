// Package config manages brewpkg configuration and Homebrew filesystem paths.
//
// Homebrew paths are derived from the install prefix, which can be
// overridden with HOMEBREW_PREFIX and HOMEBREW_CELLAR. Settings are layered
// with viper: defaults, an optional config file, BREWPKG_* environment
// variables and finally command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// ManagerName is the directory name Homebrew uses under var/.
const ManagerName = "homebrew"

// Paths contains the Homebrew filesystem locations brewpkg reads from.
type Paths struct {
	// Prefix is the Homebrew prefix (e.g. /opt/homebrew or /usr/local)
	Prefix string

	// Cellar holds one directory per formula, each holding versioned kegs
	Cellar string

	// LinkedKegs holds the symlinks marking which keg of a formula is linked
	LinkedKegs string

	// Opt holds the version-independent opt symlinks
	Opt string
}

// DefaultPrefix returns the platform default Homebrew prefix.
func DefaultPrefix() string {
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return "/opt/homebrew"
	}
	return "/usr/local"
}

// NewPaths builds Paths for prefix. An empty cellar defaults to <prefix>/Cellar.
func NewPaths(prefix, cellar string) Paths {
	prefix = filepath.Clean(prefix)
	if cellar == "" {
		cellar = filepath.Join(prefix, "Cellar")
	}
	return Paths{
		Prefix:     prefix,
		Cellar:     filepath.Clean(cellar),
		LinkedKegs: filepath.Join(prefix, "var", ManagerName, "linked"),
		Opt:        filepath.Join(prefix, "opt"),
	}
}

// DefaultPaths returns the Homebrew paths for the current environment.
// Paths can be overridden with environment variables:
// - HOMEBREW_PREFIX: Override the prefix
// - HOMEBREW_CELLAR: Override the cellar
func DefaultPaths() Paths {
	prefix := os.Getenv("HOMEBREW_PREFIX")
	if prefix == "" {
		prefix = DefaultPrefix()
	}
	return NewPaths(prefix, os.Getenv("HOMEBREW_CELLAR"))
}

// KegPath returns the versioned install directory of a formula.
func (p Paths) KegPath(name, version string) string {
	return filepath.Join(p.Cellar, name, version)
}

// LinkedKegPath returns the linked-keg marker of a formula.
func (p Paths) LinkedKegPath(name string) string {
	return filepath.Join(p.LinkedKegs, name)
}

// OptPath returns the opt symlink of a formula.
func (p Paths) OptPath(name string) string {
	return filepath.Join(p.Opt, name)
}
