// Package toolchain provides external command execution and host toolchain
// verification. Every external tool the pipeline drives (git, dotnet, cargo,
// gh) goes through the CommandRunner contract: a command, an optional
// working directory, and a captured exit code.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner abstracts command execution for testability.
type CommandRunner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (stdout string, stderr string, exitCode int, err error)
}

// ExecRunner implements CommandRunner by spawning child processes.
type ExecRunner struct {
	// Verbose streams child output to the terminal while capturing it.
	Verbose bool
}

func (e *ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdoutBuf, stderrBuf strings.Builder
	if e.Verbose {
		cmd.Stdout = io.MultiWriter(&stdoutBuf, os.Stdout)
		cmd.Stderr = io.MultiWriter(&stderrBuf, os.Stderr)
	} else {
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			// Command never started: not found, permission, or a
			// cancelled context.
			return stdoutBuf.String(), stderrBuf.String(), -1, fmt.Errorf("exec %s: %w", name, err)
		}
	}
	return stdoutBuf.String(), stderrBuf.String(), exitCode, nil
}
