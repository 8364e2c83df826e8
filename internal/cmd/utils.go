package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/4tkbytes/proton-sdk-build/internal/config"
)

// findWorkspaceRoot walks up from the current directory looking for a
// protonbuild.yaml or a Cargo.toml. Falls back to the current directory so
// a bare invocation inside the repo still works.
func findWorkspaceRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to determine working directory: %w", err)
	}

	for probe := dir; ; {
		for _, marker := range []string{config.ConfigFileName, "Cargo.toml"} {
			if _, err := os.Stat(filepath.Join(probe, marker)); err == nil {
				return probe, nil
			}
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			return dir, nil
		}
		probe = parent
	}
}
