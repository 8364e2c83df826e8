// Package matrix fans the per-platform build sequence out across the fixed
// OS/architecture matrix. Cells are fully independent: no shared mutable
// state, no ordering between them, and a failed cell never stops the others.
package matrix

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/4tkbytes/proton-sdk-build/internal/artifacts"
	"github.com/4tkbytes/proton-sdk-build/internal/config"
	"github.com/4tkbytes/proton-sdk-build/internal/dotnet"
	"github.com/4tkbytes/proton-sdk-build/internal/fsutil"
	"github.com/4tkbytes/proton-sdk-build/internal/gitsync"
	"github.com/4tkbytes/proton-sdk-build/internal/toolchain"
	"github.com/4tkbytes/proton-sdk-build/internal/ui"
)

// PlaceholderFile is the marker written into a platform's output directory
// when its native build could not be completed.
const PlaceholderFile = "BUILD_FAILED.md"

// WorkDirName is the directory under the workspace root where each cell
// keeps its private checkouts and package output.
const WorkDirName = "matrix"

// CellStatus is the per-cell verdict after the matrix run.
type CellStatus int

const (
	// CellOK means real native libraries were produced.
	CellOK CellStatus = iota
	// CellDegraded means the build failed but a placeholder output
	// directory with an explanatory marker was emitted, so packaging can
	// proceed with an explicitly labeled partial result.
	CellDegraded
	// CellCritical means not even a placeholder exists for the platform.
	CellCritical
	// CellInterrupted means the run was cancelled before the cell could
	// finish. No placeholder is written; the failure is the interrupt, not
	// a platform limitation.
	CellInterrupted
)

func (s CellStatus) String() string {
	switch s {
	case CellOK:
		return "ok"
	case CellDegraded:
		return "degraded"
	case CellInterrupted:
		return "interrupted"
	default:
		return "critical"
	}
}

// CellResult reports one matrix cell.
type CellResult struct {
	Platform  config.PlatformTarget
	Status    CellStatus
	OutputDir string
	Err       error
}

// Coordinator runs the per-platform sub-pipeline for every matrix cell.
type Coordinator struct {
	cfg    *config.Config
	root   string
	runner toolchain.CommandRunner
	out    io.Writer
}

func NewCoordinator(cfg *config.Config, root string, runner toolchain.CommandRunner, out io.Writer) *Coordinator {
	return &Coordinator{cfg: cfg, root: root, runner: runner, out: out}
}

// Run executes every cell in parallel and returns once all of them have
// either produced a real output directory or a placeholder. Results come
// back in matrix order regardless of completion order.
func (c *Coordinator) Run(ctx context.Context) []CellResult {
	results := make([]CellResult, len(c.cfg.Matrix))

	var wg sync.WaitGroup
	for i, target := range c.cfg.Matrix {
		wg.Add(1)
		go func(i int, target config.PlatformTarget) {
			defer wg.Done()
			results[i] = c.RunCell(ctx, target)
		}(i, target)
	}
	wg.Wait()

	return results
}

// RunCell runs one platform's sequence: clone dependencies, build the
// crypto dependency, build the managed SDK, publish the native library for
// the cell's runtime.
func (c *Coordinator) RunCell(ctx context.Context, target config.PlatformTarget) CellResult {
	outputDir := filepath.Join(c.root, c.cfg.Output.NativeLibs, target.Runtime)
	result := CellResult{Platform: target, OutputDir: outputDir}

	if err := ctx.Err(); err != nil {
		result.Status = CellInterrupted
		result.Err = err
		return result
	}

	fmt.Fprintln(c.out, ui.Step("matrix cell "+target.String()))

	if err := c.buildCell(ctx, target, outputDir); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(c.out, ui.Error("interrupted during cell "+target.Runtime))
			result.Status = CellInterrupted
			result.Err = ctx.Err()
			return result
		}
		fmt.Fprintln(c.out, ui.Warning(fmt.Sprintf("cell %s degraded: %v", target.Runtime, err)))
		result.Err = err
		if perr := writePlaceholder(outputDir, target, err); perr != nil {
			// No output directory at all: critical for this cell's
			// artifacts, other cells still proceed.
			result.Status = CellCritical
			result.Err = fmt.Errorf("%v (placeholder write failed: %v)", err, perr)
			return result
		}
		result.Status = CellDegraded
		return result
	}

	if empty, err := dirMissingOrEmpty(outputDir); err != nil || empty {
		result.Status = CellCritical
		result.Err = fmt.Errorf("cell produced no output in %s", outputDir)
		return result
	}

	fmt.Fprintln(c.out, ui.Success("cell "+target.Runtime+" completed"))
	result.Status = CellOK
	return result
}

func (c *Coordinator) buildCell(ctx context.Context, target config.PlatformTarget, outputDir string) error {
	// Each cell clones and builds inside its own directory; checkouts,
	// intermediate obj/ state and the package feed are never shared between
	// concurrently running cells.
	cellDir := filepath.Join(c.root, WorkDirName, target.Runtime)
	if err := os.MkdirAll(cellDir, 0o755); err != nil {
		return err
	}

	sync := gitsync.NewSynchronizer(c.runner, cellDir, c.out)
	if err := sync.CloneIfAbsent(ctx, c.cfg.Crypto.Repo, c.cfg.Crypto.Root); err != nil {
		return err
	}
	if err := sync.CloneIfAbsent(ctx, c.cfg.SDK.Repo, c.cfg.SDK.Root); err != nil {
		return err
	}

	cryptoDir := filepath.Join(cellDir, c.cfg.Crypto.Root)
	crypto := dotnet.NewExecutor(c.runner, cryptoDir, c.out)
	nugetDir := filepath.Join(cellDir, "local-nuget-repository")
	// The source name carries the runtime suffix so parallel cells never
	// fight over one registration.
	if err := crypto.RegisterLocalSource(ctx, "ProtonRepository-"+target.Runtime, nugetDir); err != nil {
		return err
	}
	if err := crypto.Pack(ctx, c.cfg.Crypto.Project, "1.0.0", nugetDir); err != nil {
		return err
	}

	sdkDir := filepath.Join(cellDir, c.cfg.SDK.Root)
	sdk := dotnet.NewExecutor(c.runner, sdkDir, c.out)
	if err := sdk.Build(ctx); err != nil {
		return err
	}
	if err := sdk.Publish(ctx, c.cfg.SDK.DriveExportProject, target.Runtime); err != nil {
		return err
	}

	published, ok := sdk.PublishOutputDir(c.cfg.SDK.DriveExportProject, target.Runtime)
	if !ok {
		return fmt.Errorf("no publish output for %s", target.Runtime)
	}
	_, err := artifacts.StagePublished(published, outputDir)
	return err
}

// writePlaceholder emits the marker directory substituted for real build
// output when the platform's build is infeasible in this environment.
func writePlaceholder(outputDir string, target config.PlatformTarget, cause error) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	marker := fmt.Sprintf(`# Native build unavailable for %s

The native library build for %s/%s (%s) failed in this environment
and no binaries are included for this platform.

Failure: %v

Generated: %s
`, target.Runtime, target.OS, target.Arch, target.Runtime, cause,
		time.Now().UTC().Format(time.RFC3339))

	return fsutil.WriteFile(filepath.Join(outputDir, PlaceholderFile), []byte(marker), 0o644)
}

// IsPlaceholder reports whether a platform directory holds only the marker.
func IsPlaceholder(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	return len(entries) == 1 && entries[0].Name() == PlaceholderFile
}

func dirMissingOrEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return true, err
	}
	return len(entries) == 0, nil
}
