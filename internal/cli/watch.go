package cli

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shormigo/base-bmf-flow-architecture-viewer/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// watchedExtensions are the files whose changes trigger a rebuild. Generated
// diagrams are ignored so output written inside the object does not loop.
var watchedExtensions = []string{".py", ".yml", ".yaml"}

// ignoredDirs are never watched.
var ignoredDirs = []string{".git", "__pycache__", "node_modules", ".idea"}

// RebuildFunc is called with the changed paths once events settle.
type RebuildFunc func(ctx context.Context, changed []string) error

// Watcher watches an object directory tree and runs rebuilds after changes
// settle. Rebuilds run one at a time.
type Watcher struct {
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// NewWatcher starts watching root and every directory below it.
func NewWatcher(root string, debounce time.Duration) (*Watcher, error) {
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

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// watchNewDir starts watching a directory created under the root. Failures
// are logged and the directory stays unwatched.
func (w *Watcher) watchNewDir(logger *slog.Logger, path string) {
	if ignoredDir(filepath.Base(path)) {
		return
	}
	if err := w.addRecursive(path); err != nil {
		logger.Warn("Watch: Failed to watch new directory.", "path", path, "error", err)
	}
}

func ignoredDir(name string) bool {
	for _, d := range ignoredDirs {
		if name == d {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// relevant reports whether a change to path can alter the graph.
func relevant(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range watchedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Run delivers debounced changes to fn until ctx is done or fn fails. The
// watcher is closed on return.
func (w *Watcher) Run(ctx context.Context, fn RebuildFunc) error {
	logger := ctxlog.FromContext(ctx)
	defer w.fsw.Close()

	changes := make(chan string, 64)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case event, ok := <-w.fsw.Events:
				if !ok {
					return nil
				}
				if event.Has(fsnotify.Create) {
					if isDir(event.Name) {
						w.watchNewDir(logger, event.Name)
						continue
					}
				}
				if !relevant(event.Name) || event.Op == fsnotify.Chmod {
					continue
				}
				logger.Debug("Watch: File changed.", "path", event.Name, "op", event.Op.String())
				select {
				case changes <- event.Name:
				case <-gctx.Done():
					return nil
				}
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return nil
				}
				logger.Warn("Watch: Watcher error.", "error", err)
			}
		}
	})

	g.Go(func() error {
		timer := time.NewTimer(w.debounce)
		timer.Stop()
		pending := map[string]bool{}
		for {
			select {
			case <-gctx.Done():
				timer.Stop()
				return nil
			case path := <-changes:
				pending[path] = true
				timer.Reset(w.debounce)
			case <-timer.C:
				if len(pending) == 0 {
					continue
				}
				changed := make([]string, 0, len(pending))
				for p := range pending {
					changed = append(changed, p)
				}
				sort.Strings(changed)
				pending = map[string]bool{}
				if err := fn(gctx, changed); err != nil {
					return err
				}
			}
		}
	})

	return g.Wait()
}
