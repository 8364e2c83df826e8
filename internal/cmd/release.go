package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/4tkbytes/proton-sdk-build/internal/config"
	"github.com/4tkbytes/proton-sdk-build/internal/release"
	"github.com/4tkbytes/proton-sdk-build/internal/toolchain"
	"github.com/4tkbytes/proton-sdk-build/internal/ui"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Package and publish the native library archives",
	Long: `Archive every platform's native library directory, produce the combined
all-platforms archive and release notes, and publish them against the
given tag. Tags containing a hyphen are published as pre-releases.`,
	RunE: runRelease,
}

var (
	releaseTag         string
	releaseSkipPublish bool
)

func init() {
	releaseCmd.Flags().StringVar(&releaseTag, "tag", "", "release tag (required)")
	releaseCmd.Flags().BoolVar(&releaseSkipPublish, "skip-publish", false, "package only, do not publish")
	_ = releaseCmd.MarkFlagRequired("tag")

	rootCmd.AddCommand(releaseCmd)
}

func runRelease(cmd *cobra.Command, args []string) error {
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
	packager := &release.Packager{
		NativeDir: filepath.Join(root, cfg.Output.NativeLibs),
		DistDir:   filepath.Join(root, cfg.Output.Dist),
		Targets:   cfg.Matrix,
		Runner:    &toolchain.ExecRunner{},
		Out:       out,
	}

	bundles, err := packager.Package(releaseTag)
	if err != nil {
		return err
	}

	for _, b := range bundles {
		if b.Placeholder {
			fmt.Fprintln(out, ui.Warning(b.Platform.Runtime+" archive contains only a build-failure placeholder"))
		}
	}

	if releaseSkipPublish {
		fmt.Fprintln(out, ui.InfoStyle.Render("skipping publish, archives are in "+packager.DistDir))
		return nil
	}
	return packager.Publish(ctx, releaseTag, bundles)
}
