package artifacts

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/4tkbytes/proton-sdk-build/internal/fsutil"
)

// StagePublished mirrors an AOT publish directory into a per-runtime output
// directory, dropping debug symbols. The destination is replaced wholesale;
// it is owned by exactly one producer. Returns the number of files copied.
func StagePublished(src, dst string) (int, error) {
	if err := os.RemoveAll(dst); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, err
	}

	count := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.EqualFold(filepath.Ext(d.Name()), ".pdb") {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if err := fsutil.CopyFile(path, filepath.Join(dst, rel)); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}
