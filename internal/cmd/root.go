package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "protonbuild",
	Short: "Build orchestrator for proton-sdk-rs and its native dependencies",
	Long: `protonbuild drives the full proton-sdk-rs build: it verifies the host
toolchains, syncs the Proton.SDK sources, runs the .NET release build,
collects the native export libraries, and builds the Rust workspace
against them.

In CI it additionally fans the build out across the release platform
matrix and packages the per-platform archives.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}
