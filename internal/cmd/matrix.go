package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/4tkbytes/proton-sdk-build/internal/config"
	"github.com/4tkbytes/proton-sdk-build/internal/matrix"
	"github.com/4tkbytes/proton-sdk-build/internal/toolchain"
	"github.com/4tkbytes/proton-sdk-build/internal/ui"
)

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Run the per-platform native builds",
	Long: `Run the native library build for every platform in the release matrix,
or for a single cell with --runtime. Cells that fail still emit a
placeholder output directory so packaging can proceed.`,
	RunE: runMatrix,
}

var matrixRuntime string

func init() {
	matrixCmd.Flags().StringVar(&matrixRuntime, "runtime", "", "build only this runtime identifier (e.g. linux-x64)")
	matrixCmd.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "stream toolchain output")

	rootCmd.AddCommand(matrixCmd)
}

func runMatrix(cmd *cobra.Command, args []string) error {
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
	runner := &toolchain.ExecRunner{Verbose: buildVerbose}
	coordinator := matrix.NewCoordinator(cfg, root, runner, out)

	var results []matrix.CellResult
	if matrixRuntime != "" {
		target, ok := cfg.Target(matrixRuntime)
		if !ok {
			return fmt.Errorf("unknown runtime %q, not in the platform matrix", matrixRuntime)
		}
		results = []matrix.CellResult{coordinator.RunCell(ctx, target)}
	} else {
		results = coordinator.Run(ctx)
	}

	fmt.Fprintln(out)
	return summarizeCells(out, results)
}

// summarizeCells prints one line per cell and maps the results onto the
// process exit status: an interrupted run or any critical cell is non-zero,
// degraded cells alone are not.
func summarizeCells(out io.Writer, results []matrix.CellResult) error {
	var critical, interrupted int
	for _, r := range results {
		switch r.Status {
		case matrix.CellOK:
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("%s: ok", r.Platform.Runtime)))
		case matrix.CellDegraded:
			fmt.Fprintln(out, ui.Warning(fmt.Sprintf("%s: degraded (%v)", r.Platform.Runtime, r.Err)))
		case matrix.CellInterrupted:
			interrupted++
			fmt.Fprintln(out, ui.Error(fmt.Sprintf("%s: interrupted", r.Platform.Runtime)))
		default:
			critical++
			fmt.Fprintln(out, ui.Error(fmt.Sprintf("%s: critical (%v)", r.Platform.Runtime, r.Err)))
		}
	}

	if interrupted > 0 {
		return fmt.Errorf("matrix run interrupted, %d cell(s) did not finish", interrupted)
	}
	if critical > 0 {
		return fmt.Errorf("%d platform(s) produced no output directory", critical)
	}
	return nil
}
