package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/4tkbytes/proton-sdk-build/internal/artifacts"
	"github.com/4tkbytes/proton-sdk-build/internal/cargo"
	"github.com/4tkbytes/proton-sdk-build/internal/config"
	"github.com/4tkbytes/proton-sdk-build/internal/dotnet"
	"github.com/4tkbytes/proton-sdk-build/internal/gitsync"
	"github.com/4tkbytes/proton-sdk-build/internal/pipeline"
	"github.com/4tkbytes/proton-sdk-build/internal/toolchain"
	"github.com/4tkbytes/proton-sdk-build/internal/ui"
	"github.com/4tkbytes/proton-sdk-build/internal/watch"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the local build pipeline",
	Long: `Verify the host toolchains, sync the SDK sources, build the managed
SDK, collect the native export libraries and build the Rust workspace.

Advisory steps can be skipped by name with --skip; skippable names are:
sync, stage, protos, bindings, wrapper, test. Fatal steps gate everything
after them and cannot be skipped.`,
	RunE: runBuild,
}

var (
	buildVerbose bool
	buildSkip    []string
	buildWatch   bool
	buildArch    string
)

func init() {
	buildCmd.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "stream toolchain output")
	buildCmd.Flags().StringSliceVar(&buildSkip, "skip", nil, "step names to skip")
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "rebuild on source changes")
	buildCmd.Flags().StringVar(&buildArch, "arch", runtime.GOARCH, "target architecture (amd64, arm64)")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, err := findWorkspaceRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	runOnce := func(ctx context.Context) error {
		outcome := buildPipeline(cfg, root, out).Run(ctx)
		if !outcome.Success {
			return fmt.Errorf("build aborted at %s", outcome.AbortedAt)
		}
		return nil
	}

	if !buildWatch {
		return runOnce(ctx)
	}

	// First build runs immediately; failures in watch mode are reported and
	// the watcher keeps going so the next save gets another attempt.
	if err := runOnce(ctx); err != nil {
		fmt.Fprintln(out, ui.Error(err.Error()))
	}

	watcher, err := watch.New(root, 500*time.Millisecond)
	if err != nil {
		return err
	}
	defer watcher.Close()

	fmt.Fprintln(out, ui.InfoStyle.Render("watching for changes, ctrl-c to stop"))
	return watcher.Run(ctx, func() {
		if err := runOnce(ctx); err != nil {
			fmt.Fprintln(out, ui.Error(err.Error()))
		}
	})
}

// buildPipeline assembles the local pipeline in its fixed order. The sync,
// per-crate build and workspace test steps are advisory; everything else is
// fatal.
func buildPipeline(cfg *config.Config, root string, out io.Writer) *pipeline.Pipeline {
	runner := &toolchain.ExecRunner{Verbose: buildVerbose}

	sdkRoot := filepath.Join(root, cfg.SDK.Root)
	verifier := toolchain.NewVerifier(runner, out)
	sync := gitsync.NewSynchronizer(runner, root, out)
	sdk := dotnet.NewExecutor(runner, sdkRoot, out)
	rust := cargo.NewExecutor(runner, root, out)
	collector := &artifacts.Collector{
		SDKRoot:   sdkRoot,
		Projects:  cfg.SDK.ExportProjects,
		OutputDir: filepath.Join(root, cfg.Output.NativeLibs),
		Out:       out,
		Progress:  true,
	}

	steps := []pipeline.Step{
		{Name: "deps", State: pipeline.StateCheckingDeps, Severity: pipeline.Fatal, Run: func(ctx context.Context) error {
			_, err := verifier.Verify(ctx)
			return err
		}},
		{Name: "sync", State: pipeline.StateSyncing, Severity: pipeline.Advisory, Run: sync.Sync},
		{Name: "dotnet", State: pipeline.StateManagedBuild, Severity: pipeline.Fatal, Run: sdk.Build},
		{Name: "collect", State: pipeline.StateCollecting, Severity: pipeline.Fatal, Run: func(ctx context.Context) error {
			_, err := collector.Collect()
			return err
		}},
		{Name: "stage", State: pipeline.StateCollecting, Severity: pipeline.Advisory, Run: func(ctx context.Context) error {
			rid := hostRuntimeID(buildArch)
			published, ok := sdk.PublishOutputDir(cfg.SDK.DriveExportProject, rid)
			if !ok {
				return fmt.Errorf("no AOT publish output for %s, cargo builds use the flat collection only", rid)
			}
			n, err := artifacts.StagePublished(published, filepath.Join(root, cfg.Output.NativeLibs, rid))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.InfoStyle.Render(fmt.Sprintf("staged %d AOT files for %s", n, rid)))
			return nil
		}},
		{Name: "protos", State: pipeline.StateSyncing, Severity: pipeline.Advisory, Run: func(ctx context.Context) error {
			_, err := sync.SyncProtos(sdkRoot, filepath.Join(root, cfg.Cargo.BindingsPackage))
			return err
		}},
		{Name: "bindings", State: pipeline.StateSystemsBuild, Severity: pipeline.Advisory, Run: func(ctx context.Context) error {
			return rust.BuildPackage(ctx, cfg.Cargo.BindingsPackage)
		}},
		{Name: "wrapper", State: pipeline.StateSystemsBuild, Severity: pipeline.Advisory, Run: func(ctx context.Context) error {
			return rust.BuildPackage(ctx, cfg.Cargo.WrapperPackage)
		}},
		{Name: "workspace", State: pipeline.StateSystemsBuild, Severity: pipeline.Fatal, Run: rust.BuildWorkspace},
		{Name: "test", State: pipeline.StateTesting, Severity: pipeline.Advisory, Run: rust.TestWorkspace},
	}

	return pipeline.New(out, filterSteps(steps, buildSkip))
}

// hostRuntimeID maps the host OS and a Go architecture name onto the
// managed runtime identifier used for AOT publishing.
func hostRuntimeID(arch string) string {
	if arch == "amd64" {
		arch = "x64"
	}
	switch runtime.GOOS {
	case "windows":
		return "win-" + arch
	case "darwin":
		return "osx-" + arch
	default:
		return runtime.GOOS + "-" + arch
	}
}

// filterSteps drops the named steps from the sequence. Only advisory steps
// may be skipped; fatal steps gate everything after them and stay in
// regardless.
func filterSteps(steps []pipeline.Step, skip []string) []pipeline.Step {
	if len(skip) == 0 {
		return steps
	}
	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipped[name] = true
	}
	kept := make([]pipeline.Step, 0, len(steps))
	for _, s := range steps {
		if skipped[s.Name] && s.Severity == pipeline.Advisory {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
