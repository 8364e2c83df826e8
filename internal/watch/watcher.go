// Package watch triggers pipeline re-runs when the SDK source tree changes.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ignoredDirs are build outputs and metadata that must never trigger a
// rebuild; watching them would loop the pipeline forever.
var ignoredDirs = map[string]bool{
	".git":        true,
	"bin":         true,
	"obj":         true,
	"target":      true,
	"native-libs": true,
	"dist":        true,
	"node_modules": true,
}

// Watcher debounces file-system events under a root directory and invokes a
// callback once per burst of changes.
type Watcher struct {
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// New creates a watcher over root. Subdirectories are registered
// recursively, skipping build outputs.
func New(root string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{root: root, debounce: debounce, fsw: fsw}
	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks, invoking onChange after each debounced burst of events, until
// ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ignoredDirs[filepath.Base(event.Name)] {
				continue
			}
			// New directories need registering so nested changes are seen.
			if event.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					_ = w.addRecursive(event.Name)
				}
			}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			onChange()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directories may vanish mid-walk during a build.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignoredDirs[d.Name()] {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}
