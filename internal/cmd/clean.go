package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/4tkbytes/proton-sdk-build/internal/cargo"
	"github.com/4tkbytes/proton-sdk-build/internal/config"
	"github.com/4tkbytes/proton-sdk-build/internal/dotnet"
	"github.com/4tkbytes/proton-sdk-build/internal/matrix"
	"github.com/4tkbytes/proton-sdk-build/internal/toolchain"
	"github.com/4tkbytes/proton-sdk-build/internal/ui"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove build outputs",
	Long: `Remove the managed bin/obj directories, the collected native libraries,
the dist archives, the local NuGet repository and the matrix work
directories, then run cargo clean.

--deep additionally clears the global NuGet caches after confirmation.`,
	RunE: runClean,
}

var cleanDeep bool

func init() {
	cleanCmd.Flags().BoolVar(&cleanDeep, "deep", false, "also clear the global NuGet caches")

	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
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

	for _, dir := range []string{
		filepath.Join(root, cfg.Output.NativeLibs),
		filepath.Join(root, cfg.Output.Dist),
		filepath.Join(root, "local-nuget-repository"),
		filepath.Join(root, matrix.WorkDirName),
	} {
		if err := removeReported(out, dir); err != nil {
			return err
		}
	}

	for _, checkout := range []string{cfg.SDK.Root, cfg.Crypto.Root} {
		if err := removeBinObj(out, filepath.Join(root, checkout)); err != nil {
			return err
		}
	}

	runner := &toolchain.ExecRunner{Verbose: buildVerbose}
	rust := cargo.NewExecutor(runner, root, out)
	if err := rust.Clean(ctx); err != nil {
		// The Rust workspace may be absent or never built; nothing left to
		// remove in that case.
		fmt.Fprintln(out, ui.Warning(fmt.Sprintf("cargo clean failed: %v", err)))
	}

	if cleanDeep {
		prompt := promptui.Prompt{
			Label:     "Clear all global NuGet caches",
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			fmt.Fprintln(out, ui.InfoStyle.Render("keeping NuGet caches"))
			return nil
		}
		sdk := dotnet.NewExecutor(runner, root, out)
		if err := sdk.ClearNugetCache(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success("cleared global NuGet caches"))
	}

	fmt.Fprintln(out, ui.Success("workspace cleaned"))
	return nil
}

func removeReported(out io.Writer, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	fmt.Fprintln(out, ui.SubtleStyle.Render("removed "+dir))
	return nil
}

// removeBinObj deletes every bin and obj directory under a managed checkout.
func removeBinObj(out io.Writer, checkout string) error {
	if _, err := os.Stat(checkout); os.IsNotExist(err) {
		return nil
	}

	var targets []string
	err := filepath.WalkDir(checkout, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && (d.Name() == "bin" || d.Name() == "obj") {
			targets = append(targets, path)
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, dir := range targets {
		if err := removeReported(out, dir); err != nil {
			return err
		}
	}
	return nil
}
