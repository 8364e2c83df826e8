// Package gitsync keeps the external source dependencies up to date: the
// Proton.SDK submodule for local builds, and fresh clones for CI matrix
// cells.
package gitsync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/4tkbytes/proton-sdk-build/internal/fsutil"
	"github.com/4tkbytes/proton-sdk-build/internal/toolchain"
	"github.com/4tkbytes/proton-sdk-build/internal/ui"
)

// Synchronizer updates nested source dependencies through git.
type Synchronizer struct {
	runner toolchain.CommandRunner
	root   string
	out    io.Writer
}

func NewSynchronizer(runner toolchain.CommandRunner, root string, out io.Writer) *Synchronizer {
	return &Synchronizer{runner: runner, root: root, out: out}
}

// Sync brings the nested SDK checkout up to date. Callers treat a returned
// error as advisory: a stale-but-present checkout from an earlier run is
// still buildable.
func (s *Synchronizer) Sync(ctx context.Context) error {
	_, stderr, exitCode, err := s.runner.Run(ctx, s.root, "git", "submodule", "update", "--init", "--recursive")
	if err != nil {
		return fmt.Errorf("submodule update: %w", err)
	}
	if exitCode != 0 {
		return fmt.Errorf("submodule update exited %d: %s", exitCode, firstLine(stderr))
	}
	fmt.Fprintln(s.out, ui.Success("submodules up to date"))
	return nil
}

// CloneIfAbsent clones url into dest (relative to the workspace root)
// unless the directory already exists, in which case the existing checkout
// is reused.
func (s *Synchronizer) CloneIfAbsent(ctx context.Context, url, dest string) error {
	path := dest
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, dest)
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintln(s.out, ui.InfoStyle.Render(fmt.Sprintf("repository %s already exists, skipping clone", dest)))
		return nil
	}

	_, stderr, exitCode, err := s.runner.Run(ctx, s.root, "git", "clone", url, path)
	if err != nil {
		return fmt.Errorf("clone %s: %w", url, err)
	}
	if exitCode != 0 {
		return fmt.Errorf("clone %s exited %d: %s", url, exitCode, firstLine(stderr))
	}
	return nil
}

// SyncProtos mirrors the SDK's protobuf definitions into the bindings
// crate so the generated Rust types track the current wire format. A
// missing protos directory in the SDK is a warning; an absent bindings
// crate is an error. Returns the number of definitions copied.
func (s *Synchronizer) SyncProtos(sdkRoot, bindingsRoot string) (int, error) {
	src := filepath.Join(sdkRoot, "protos")
	if _, err := os.Stat(src); err != nil {
		fmt.Fprintln(s.out, ui.Warning("no protos directory in "+sdkRoot+", skipping"))
		return 0, nil
	}
	if _, err := os.Stat(bindingsRoot); err != nil {
		return 0, fmt.Errorf("bindings crate not found at %s", bindingsRoot)
	}

	dst := filepath.Join(bindingsRoot, "protos")
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, err
	}

	// Stale definitions are removed first so upstream deletions propagate.
	stale, err := filepath.Glob(filepath.Join(dst, "*.proto"))
	if err != nil {
		return 0, err
	}
	for _, f := range stale {
		if err := os.Remove(f); err != nil {
			return 0, err
		}
	}

	files, err := filepath.Glob(filepath.Join(src, "*.proto"))
	if err != nil {
		return 0, err
	}
	for _, f := range files {
		if err := fsutil.CopyFile(f, filepath.Join(dst, filepath.Base(f))); err != nil {
			return 0, err
		}
	}

	fmt.Fprintln(s.out, ui.Success(fmt.Sprintf("synced %d protobuf definitions into %s", len(files), dst)))
	return len(files), nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
