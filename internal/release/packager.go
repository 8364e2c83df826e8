// Package release assembles the per-platform and combined archives and
// publishes them against a tag.
package release

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/4tkbytes/proton-sdk-build/internal/config"
	"github.com/4tkbytes/proton-sdk-build/internal/fsutil"
	"github.com/4tkbytes/proton-sdk-build/internal/matrix"
	"github.com/4tkbytes/proton-sdk-build/internal/toolchain"
	"github.com/4tkbytes/proton-sdk-build/internal/ui"
)

// Format is the archive format, chosen deterministically from the OS family.
type Format int

const (
	FormatTarGz Format = iota
	FormatZip
)

func (f Format) Ext() string {
	if f == FormatZip {
		return ".zip"
	}
	return ".tar.gz"
}

// FormatFor returns zip for the windows family and tar+gzip otherwise.
func FormatFor(osFamily string) Format {
	if osFamily == "windows" {
		return FormatZip
	}
	return FormatTarGz
}

// CombinedArchiveName is the single archive containing every platform
// directory.
const CombinedArchiveName = "proton-sdk-native-all-platforms.tar.gz"

// NotesFileName is the generated release notes file.
const NotesFileName = "RELEASE_NOTES.md"

// ErrMissingPlatformDir means a declared platform has no output directory
// at all after the matrix stage, not even a placeholder.
var ErrMissingPlatformDir = errors.New("no output directory for platform")

// Bundle is the publishable evidence of one platform's release.
type Bundle struct {
	Platform    config.PlatformTarget
	ArtifactDir string
	ArchivePath string
	Format      Format
	Placeholder bool
}

// Packager owns release bundle construction. It has read-only access to
// each platform's artifact directory.
type Packager struct {
	// NativeDir holds one subdirectory per runtime identifier.
	NativeDir string
	// DistDir receives the archives and release notes.
	DistDir string
	// Targets is the declared platform matrix.
	Targets []config.PlatformTarget
	// Runner invokes the release publisher.
	Runner toolchain.CommandRunner
	// Out receives status lines.
	Out io.Writer
}

// ArchiveName returns the per-platform archive file name.
func ArchiveName(runtime string, f Format) string {
	return "proton-sdk-native-" + runtime + f.Ext()
}

// Package archives every platform directory plus the combined archive and
// writes the release notes. Every declared platform must have an output
// directory, real or placeholder.
func (p *Packager) Package(tag string) ([]Bundle, error) {
	if err := os.MkdirAll(p.DistDir, 0o755); err != nil {
		return nil, err
	}

	bundles := make([]Bundle, 0, len(p.Targets))
	for _, target := range p.Targets {
		dir := filepath.Join(p.NativeDir, target.Runtime)
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrMissingPlatformDir, target.Runtime)
		}

		format := FormatFor(target.OS)
		archivePath := filepath.Join(p.DistDir, ArchiveName(target.Runtime, format))

		var err error
		if format == FormatZip {
			err = zipDir(dir, archivePath)
		} else {
			err = tarGzDirs(archivePath, map[string]string{"": dir})
		}
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", target.Runtime, err)
		}

		bundle := Bundle{
			Platform:    target,
			ArtifactDir: dir,
			ArchivePath: archivePath,
			Format:      format,
			Placeholder: matrix.IsPlaceholder(dir),
		}
		bundles = append(bundles, bundle)
		fmt.Fprintln(p.Out, ui.IconPackage+" "+ui.InfoStyle.Render("packaged "+filepath.Base(archivePath)))
	}

	// One combined archive with every platform directory, keyed by
	// runtime identifier.
	combined := make(map[string]string, len(bundles))
	for _, b := range bundles {
		combined[b.Platform.Runtime] = b.ArtifactDir
	}
	combinedPath := filepath.Join(p.DistDir, CombinedArchiveName)
	if err := tarGzDirs(combinedPath, combined); err != nil {
		return nil, fmt.Errorf("combined archive: %w", err)
	}
	fmt.Fprintln(p.Out, ui.IconPackage+" "+ui.InfoStyle.Render("packaged "+CombinedArchiveName))

	if err := p.writeNotes(tag, bundles); err != nil {
		return nil, err
	}
	return bundles, nil
}

// Publish creates the release for the tag with every archive attached. Tags
// containing a hyphen are marked as pre-releases.
func (p *Packager) Publish(ctx context.Context, tag string, bundles []Bundle) error {
	args := []string{"release", "create", tag,
		"--title", "Proton SDK native libraries " + tag,
		"--notes-file", filepath.Join(p.DistDir, NotesFileName),
	}
	if strings.Contains(tag, "-") {
		args = append(args, "--prerelease")
	}
	for _, b := range bundles {
		args = append(args, b.ArchivePath)
	}
	args = append(args, filepath.Join(p.DistDir, CombinedArchiveName))

	_, stderr, exitCode, err := p.Runner.Run(ctx, "", "gh", args...)
	if err != nil {
		return fmt.Errorf("gh release create: %w", err)
	}
	if exitCode != 0 {
		return fmt.Errorf("gh release create exited %d: %s", exitCode, strings.TrimSpace(stderr))
	}
	fmt.Fprintln(p.Out, ui.Success("published release "+tag))
	return nil
}

func (p *Packager) writeNotes(tag string, bundles []Bundle) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Proton SDK native libraries %s\n\n", tag)
	fmt.Fprintf(&b, "Per-platform archives:\n\n")
	for _, bundle := range bundles {
		status := "native libraries"
		if bundle.Placeholder {
			status = "placeholder only, build unavailable on this platform"
		}
		fmt.Fprintf(&b, "- `%s` — %s\n", filepath.Base(bundle.ArchivePath), status)
	}
	fmt.Fprintf(&b, "- `%s` — all platforms combined\n", CombinedArchiveName)

	return fsutil.WriteFile(filepath.Join(p.DistDir, NotesFileName), []byte(b.String()), 0o644)
}

// zipDir archives the contents of dir (flat, relative names).
func zipDir(dir, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(w, in)
		return err
	})
	if err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// tarGzDirs archives one or more directories. Keys become the top-level
// prefix inside the archive; an empty key stores entries at the root.
func tarGzDirs(dest string, dirs map[string]string) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for prefix, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			name := filepath.ToSlash(rel)
			if prefix != "" {
				name = prefix + "/" + name
			}

			info, err := d.Info()
			if err != nil {
				return err
			}
			hdr, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			hdr.Name = name
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}

			in, err := os.Open(path)
			if err != nil {
				return err
			}
			defer in.Close()
			_, err = io.Copy(tw, in)
			return err
		})
		if err != nil {
			tw.Close()
			gz.Close()
			return err
		}
	}

	if err := tw.Close(); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}
