package engine

// BuildRequest represents a request to package an installed formula.
type BuildRequest struct {
	// CWD is the directory relative paths are resolved against
	CWD string

	// Formula is the name of the installed formula to package
	Formula string

	// IdentifierPrefix prefixes the package identifier; a trailing "." is trimmed
	IdentifierPrefix string

	// WithDeps stages every recursive dependency as well
	WithDeps bool

	// WithoutKegs skips copying the versioned kegs into Cellar/
	WithoutKegs bool

	// ScriptsPath is an optional directory holding preinstall/postinstall
	ScriptsPath string

	// Ownership is an optional pkgbuild --ownership value
	Ownership string

	// OutputDir is where the package is written; defaults to CWD
	OutputDir string

	// DryRun performs planning only without staging or building
	DryRun bool
}
