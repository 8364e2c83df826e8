// Package dotnet drives the managed-runtime build system for the SDK and
// its crypto dependency.
package dotnet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/4tkbytes/proton-sdk-build/internal/toolchain"
	"github.com/4tkbytes/proton-sdk-build/internal/ui"
)

var (
	// ErrProjectDirMissing means the SDK checkout is absent; the build is
	// not even attempted.
	ErrProjectDirMissing = errors.New("project directory not found")
	// ErrManagedBuild wraps a non-zero exit from the managed build.
	ErrManagedBuild = errors.New("managed build failed")
)

// Executor runs dotnet commands against a project checkout.
type Executor struct {
	runner toolchain.CommandRunner
	root   string
	out    io.Writer
}

func NewExecutor(runner toolchain.CommandRunner, root string, out io.Writer) *Executor {
	return &Executor{runner: runner, root: root, out: out}
}

// Build compiles the whole checkout in the Release configuration. The
// checkout must exist; nothing downstream can be trusted without it.
func (e *Executor) Build(ctx context.Context) error {
	if _, err := os.Stat(e.root); err != nil {
		return fmt.Errorf("%w: %s", ErrProjectDirMissing, e.root)
	}

	fmt.Fprintln(e.out, ui.InfoStyle.Render("dotnet build -c Release in "+e.root))
	_, stderr, exitCode, err := e.runner.Run(ctx, e.root, "dotnet", "build", "-c", "Release")
	if err != nil {
		return fmt.Errorf("dotnet build: %w", err)
	}
	if exitCode != 0 {
		return fmt.Errorf("%w: exit code %d: %s", ErrManagedBuild, exitCode, firstLine(stderr))
	}
	return nil
}

// Publish AOT-compiles the given export project for a runtime identifier.
// Used by CI matrix cells to produce the per-platform native library.
func (e *Executor) Publish(ctx context.Context, project, runtime string) error {
	csproj := filepath.Join(e.root, "src", project, project+".csproj")
	if _, err := os.Stat(csproj); err != nil {
		return fmt.Errorf("%w: %s", ErrProjectDirMissing, csproj)
	}

	// Restore failures are tolerated; publish performs an implicit restore
	// and is the authoritative step.
	if _, _, exitCode, err := e.runner.Run(ctx, e.root, "dotnet", "restore", csproj); err != nil || exitCode != 0 {
		fmt.Fprintln(e.out, ui.Warning("package restore failed, continuing with publish"))
	}

	_, stderr, exitCode, err := e.runner.Run(ctx, e.root, "dotnet", "publish", csproj,
		"-r", runtime, "--self-contained", "-p:PublishAot=true")
	if err != nil {
		return fmt.Errorf("dotnet publish: %w", err)
	}
	if exitCode != 0 {
		return fmt.Errorf("%w: publish %s for %s: exit code %d: %s",
			ErrManagedBuild, project, runtime, exitCode, firstLine(stderr))
	}
	return nil
}

// Pack builds the crypto NuGet package into outputDir.
func (e *Executor) Pack(ctx context.Context, csproj, version, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	_, stderr, exitCode, err := e.runner.Run(ctx, e.root, "dotnet", "pack",
		"-c", "Release", "-p:Version="+version, csproj, "--output", outputDir)
	if err != nil {
		return fmt.Errorf("dotnet pack: %w", err)
	}
	if exitCode != 0 {
		return fmt.Errorf("%w: pack %s: exit code %d: %s", ErrManagedBuild, csproj, exitCode, firstLine(stderr))
	}
	return nil
}

// PublishOutputDir returns where an AOT publish lands for a project and
// runtime. The publish subdirectory is preferred; the plain output
// directory is the fallback when publish was skipped.
func (e *Executor) PublishOutputDir(project, runtime string) (string, bool) {
	base := filepath.Join(e.root, "src", project, "bin", "Release", "net9.0", runtime)
	if fi, err := os.Stat(filepath.Join(base, "publish")); err == nil && fi.IsDir() {
		return filepath.Join(base, "publish"), true
	}
	if fi, err := os.Stat(base); err == nil && fi.IsDir() {
		return base, true
	}
	return "", false
}

// RegisterLocalSource points the named NuGet package source at dir,
// replacing any previous registration, so freshly packed packages resolve
// during the SDK build.
func (e *Executor) RegisterLocalSource(ctx context.Context, name, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// Removal fails when the source was never registered; that is fine.
	if _, _, exitCode, err := e.runner.Run(ctx, e.root, "dotnet", "nuget", "remove", "source", name); err == nil && exitCode == 0 {
		fmt.Fprintln(e.out, ui.InfoStyle.Render("replaced NuGet source "+name))
	}

	_, stderr, exitCode, err := e.runner.Run(ctx, e.root, "dotnet", "nuget", "add", "source", dir, "--name", name)
	if err != nil {
		return fmt.Errorf("dotnet nuget add source: %w", err)
	}
	if exitCode != 0 {
		return fmt.Errorf("add NuGet source %s exited %d: %s", name, exitCode, firstLine(stderr))
	}
	return nil
}

// ClearNugetCache clears all local NuGet caches.
func (e *Executor) ClearNugetCache(ctx context.Context) error {
	_, stderr, exitCode, err := e.runner.Run(ctx, e.root, "dotnet", "nuget", "locals", "all", "--clear")
	if err != nil {
		return fmt.Errorf("dotnet nuget locals: %w", err)
	}
	if exitCode != 0 {
		return fmt.Errorf("dotnet nuget locals exited %d: %s", exitCode, firstLine(stderr))
	}
	return nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
