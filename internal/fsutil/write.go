//go:build !windows
// +build !windows

package fsutil

import (
	"os"

	"github.com/google/renameio/v2"
)

// WriteFile writes data to the named file atomically using rename, so a
// crash mid-write never leaves a truncated marker or notes file behind.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(filename, data, perm)
}
