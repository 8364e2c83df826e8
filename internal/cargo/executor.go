// Package cargo drives the systems-language package manager for the Rust
// workspace consuming the native libraries.
package cargo

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/4tkbytes/proton-sdk-build/internal/toolchain"
)

// ErrBuild wraps a non-zero exit from any cargo invocation. Severity is the
// caller's call: per-package builds are early diagnostics, the workspace
// build is the authoritative gate.
var ErrBuild = errors.New("cargo build failed")

// Executor runs cargo commands inside the workspace directory.
type Executor struct {
	runner toolchain.CommandRunner
	dir    string
	out    io.Writer
}

func NewExecutor(runner toolchain.CommandRunner, dir string, out io.Writer) *Executor {
	return &Executor{runner: runner, dir: dir, out: out}
}

// BuildPackage builds a single crate.
func (e *Executor) BuildPackage(ctx context.Context, pkg string) error {
	return e.run(ctx, "build "+pkg, "build", "-p", pkg)
}

// BuildWorkspace builds every crate in the workspace.
func (e *Executor) BuildWorkspace(ctx context.Context) error {
	return e.run(ctx, "build workspace", "build", "--workspace")
}

// TestWorkspace runs the workspace test suite.
func (e *Executor) TestWorkspace(ctx context.Context) error {
	return e.run(ctx, "test workspace", "test", "--workspace")
}

// Clean removes the cargo build outputs.
func (e *Executor) Clean(ctx context.Context) error {
	return e.run(ctx, "clean", "clean")
}

func (e *Executor) run(ctx context.Context, what string, args ...string) error {
	_, stderr, exitCode, err := e.runner.Run(ctx, e.dir, "cargo", args...)
	if err != nil {
		return fmt.Errorf("cargo %s: %w", what, err)
	}
	if exitCode != 0 {
		return fmt.Errorf("%w: %s: exit code %d: %s", ErrBuild, what, exitCode, lastLine(stderr))
	}
	return nil
}

// lastLine extracts the trailing line of cargo's stderr, where the
// summarizing "error: ..." message lands.
func lastLine(s string) string {
	end := len(s)
	for end > 0 && (s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	start := end
	for start > 0 && s[start-1] != '\n' {
		start--
	}
	return s[start:end]
}
