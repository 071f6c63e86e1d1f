package stage

import (
	"path/filepath"
)

// Operation type constants
const (
	OpMkdir = "mkdir"
	OpCopy  = "copy"
	OpWrite = "write"
)

// Plan is the staging plan for one run: a temporary root mirroring the
// Homebrew prefix and the ordered operations that populate it.
type Plan struct {
	// Root is the temporary directory handed to pkgbuild as --root
	Root string

	// PrefixRoot is Root joined with the Homebrew prefix; every operation writes below it
	PrefixRoot string

	// Packages lists the formulae staged, in order
	Packages []string

	// Operations is the ordered list of operations to execute
	Operations []Operation
}

// Operation represents a single filesystem operation to execute.
type Operation struct {
	// Type is the operation type: "mkdir", "copy", "write"
	Type string `json:"type"`

	// SourcePath is the path copied from (copy only)
	SourcePath string `json:"source,omitempty"`

	// DestPath is the absolute destination inside the staging root
	DestPath string `json:"-"`

	// RelPath is DestPath relative to Root, i.e. the install path on the target
	RelPath string `json:"path"`

	// Content is written verbatim (write only)
	Content []byte `json:"-"`

	// Formula is the formula contributing this operation
	Formula string `json:"formula"`
}

// NewPlan creates an empty Plan rooted at root for the given Homebrew prefix.
func NewPlan(root, prefix string) *Plan {
	return &Plan{
		Root:       root,
		PrefixRoot: filepath.Join(root, prefix),
		Packages:   []string{},
		Operations: []Operation{},
	}
}

// AddOperation adds an operation to the plan.
func (p *Plan) AddOperation(op Operation) {
	p.Operations = append(p.Operations, op)
}

// Dest returns the destination below PrefixRoot for the given path elements.
func (p *Plan) Dest(elem ...string) string {
	return filepath.Join(append([]string{p.PrefixRoot}, elem...)...)
}

// mkdir, copy and write append operations for formula with RelPath filled in.
func (p *Plan) mkdir(formula, dest string) {
	p.AddOperation(Operation{Type: OpMkdir, DestPath: dest, RelPath: p.rel(dest), Formula: formula})
}

func (p *Plan) copy(formula, src, dest string) {
	p.AddOperation(Operation{Type: OpCopy, SourcePath: src, DestPath: dest, RelPath: p.rel(dest), Formula: formula})
}

func (p *Plan) write(formula, dest string, content []byte) {
	p.AddOperation(Operation{Type: OpWrite, DestPath: dest, RelPath: p.rel(dest), Content: content, Formula: formula})
}

func (p *Plan) rel(dest string) string {
	rel, err := filepath.Rel(p.Root, dest)
	if err != nil {
		return dest
	}
	return rel
}
