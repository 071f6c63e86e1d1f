// Package engine provides the core business logic for brewpkg.
//
// The engine package acts as the orchestration layer between CLI commands and
// lower-level operations. It resolves the formulae to package, owns the
// lifecycle of the temporary staging root, executes the staging plan and
// hands the populated root to pkgbuild.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - Build: Select, stage, assemble and tear down in one run
//   - executeOperation: Applies a single staging operation to the root
package engine

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/danieljhkim/brewpkg/internal/config"
	"github.com/danieljhkim/brewpkg/internal/formula"
	"github.com/danieljhkim/brewpkg/internal/fsops"
	"github.com/danieljhkim/brewpkg/internal/hash"
	"github.com/danieljhkim/brewpkg/internal/pkgbuild"
	"github.com/danieljhkim/brewpkg/internal/stage"
)

// Engine orchestrates all brewpkg operations.
// It is the main API surface called by the CLI.
type Engine struct {
	provider     formula.Provider
	fs           fsops.FS
	builder      pkgbuild.Builder
	hasher       hash.Hasher
	paths        config.Paths
	interpreters []string
	logger       *log.Logger
}

// New creates a new Engine with the given dependencies.
func New(
	provider formula.Provider,
	fs fsops.FS,
	builder pkgbuild.Builder,
	hasher hash.Hasher,
	paths config.Paths,
	interpreters []string,
	logger *log.Logger,
) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{
		provider:     provider,
		fs:           fs,
		builder:      builder,
		hasher:       hasher,
		paths:        paths,
		interpreters: interpreters,
		logger:       logger,
	}
}

// executeOperation executes a single staging operation.
func (e *Engine) executeOperation(plan *stage.Plan, op stage.Operation) error {
	rel, err := stagingRelative(plan.Root, op.DestPath)
	if err != nil {
		return err
	}
	if err := e.fs.ValidateRelPath(rel); err != nil {
		return fmt.Errorf("invalid staging path: %w", err)
	}

	switch op.Type {
	case stage.OpMkdir:
		return e.executeMkdir(op)
	case stage.OpCopy:
		return e.executeCopy(op)
	case stage.OpWrite:
		return e.executeWrite(op)
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

// executeMkdir creates a directory and its parents.
func (e *Engine) executeMkdir(op stage.Operation) error {
	if err := e.fs.MkdirAll(op.DestPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return nil
}

// executeCopy copies a file, symlink or directory tree.
func (e *Engine) executeCopy(op stage.Operation) error {
	if err := e.fs.Copy(op.SourcePath, op.DestPath); err != nil {
		return fmt.Errorf("failed to copy: %w", err)
	}

	return nil
}

// executeWrite writes file content, creating parent directories.
func (e *Engine) executeWrite(op stage.Operation) error {
	if err := e.fs.WriteFile(op.DestPath, op.Content, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
