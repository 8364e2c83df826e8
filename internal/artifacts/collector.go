package artifacts

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/4tkbytes/proton-sdk-build/internal/fsutil"
	"github.com/4tkbytes/proton-sdk-build/internal/ui"
)

// ErrNoArtifacts means no export project emitted a single matching library;
// building language bindings against nothing is meaningless.
var ErrNoArtifacts = errors.New("no native libraries found")

// Collector walks the export projects' Release output directories and
// copies every matching library into one flat output directory.
type Collector struct {
	// SDKRoot is the managed SDK checkout.
	SDKRoot string
	// Projects are the export project names under <SDKRoot>/src.
	Projects []string
	// OutputDir is the flat destination directory.
	OutputDir string
	// Out receives status lines.
	Out io.Writer
	// Progress draws a copy progress bar on stderr.
	Progress bool
}

// Collect returns the number of libraries copied. An absent project output
// directory is skipped with a warning; the only fatal condition is a zero
// total across all projects.
func (c *Collector) Collect() (int, error) {
	var matches []string

	for _, project := range c.Projects {
		dir := filepath.Join(c.SDKRoot, "src", project, "bin", "Release")
		if _, err := os.Stat(dir); err != nil {
			fmt.Fprintln(c.Out, ui.Warning(fmt.Sprintf("no output directory for %s, skipping", project)))
			continue
		}

		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !IsLibrary(d.Name()) {
				return nil
			}
			if Classify(d.Name()) == Match {
				matches = append(matches, path)
			}
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("walk %s: %w", dir, err)
		}
	}

	if len(matches) == 0 {
		return 0, ErrNoArtifacts
	}

	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return 0, err
	}

	var bar *progressbar.ProgressBar
	if c.Progress {
		bar = progressbar.NewOptions(len(matches),
			progressbar.OptionSetDescription("Copying artifacts"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(os.Stderr, "\n")
			}),
		)
	}

	// Flat copy; a name collision across projects is last write wins.
	for _, src := range matches {
		dst := filepath.Join(c.OutputDir, filepath.Base(src))
		if err := fsutil.CopyFile(src, dst); err != nil {
			return 0, fmt.Errorf("copy %s: %w", src, err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	fmt.Fprintln(c.Out, ui.Success(fmt.Sprintf("collected %d native libraries into %s", len(matches), c.OutputDir)))
	return len(matches), nil
}
