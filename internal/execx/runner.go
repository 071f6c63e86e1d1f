// Package execx runs the external tools brewpkg depends on (brew, pkgbuild).
//
// Commands run synchronously and are attempted exactly once. An optional
// timeout bounds each invocation; without one a hung tool blocks the caller.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// maxStderrTail bounds how much stderr an ExitError keeps.
const maxStderrTail = 4096

// Runner provides an abstraction for running external commands.
type Runner interface {
	// Output runs the command and returns its standard output.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Run runs the command in dir, streaming its output to the runner's writers.
	Run(ctx context.Context, dir, name string, args ...string) error
}

// ExitError reports a command that could not be started or exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Command)
	if e.ExitCode > 0 {
		msg = fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct {
	// Timeout bounds each command. Zero means no timeout.
	Timeout time.Duration

	// Stdout and Stderr receive the output of Run. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner(timeout time.Duration, stdout, stderr io.Writer) *ExecRunner {
	return &ExecRunner{Timeout: timeout, Stdout: stdout, Stderr: stderr}
}

// Output runs the command and returns its standard output.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return out, wrapExitError(ctx, name, args, stderr.String(), err)
	}
	return out, nil
}

// Run runs the command in dir, streaming its output to the runner's writers.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = &stderr
	if r.Stderr != nil {
		cmd.Stderr = io.MultiWriter(r.Stderr, &stderr)
	}

	if err := cmd.Run(); err != nil {
		return wrapExitError(ctx, name, args, stderr.String(), err)
	}
	return nil
}

func (r *ExecRunner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout > 0 {
		return context.WithTimeout(ctx, r.Timeout)
	}
	return context.WithCancel(ctx)
}

func wrapExitError(ctx context.Context, name string, args []string, stderr string, err error) error {
	exitErr := &ExitError{
		Command: strings.TrimSpace(name + " " + strings.Join(args, " ")),
		Stderr:  tail(strings.TrimSpace(stderr), maxStderrTail),
		Err:     err,
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		exitErr.ExitCode = ee.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		exitErr.Err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return exitErr
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
