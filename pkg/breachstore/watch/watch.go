// Package watch runs ingestion when files are dropped into the import
// folder.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/breachstore/pkg/breachstore/logging"
)

var logger = logging.Get("watch")

// DefaultDebounce is the quiet period before a run starts.
const DefaultDebounce = 5 * time.Second

var (
	// ErrNoRun is returned by New when Options.Run is nil.
	ErrNoRun = errors.New("watch: run function is required")

	errClosed = errors.New("watch: event stream closed")
)

// Options configures a Watcher.
type Options struct {
	// Root is the import folder.
	Root string

	// Debounce is the quiet period after the last event before Run is
	// called. Zero uses DefaultDebounce.
	Debounce time.Duration

	// Skip reports paths whose events are ignored, such as done folders.
	Skip func(path string) bool

	// Initial runs once at start before any event arrives.
	Initial bool

	// Run performs one ingestion pass. Its errors are logged; the watcher
	// keeps going.
	Run func(ctx context.Context) error
}

// Watcher watches a folder tree and triggers debounced runs.
type Watcher struct {
	opts   Options
	fsw    *fsnotify.Watcher
	paths  map[string]bool
	mu     sync.Mutex
	closed bool
}

// New creates a Watcher. Call Run to start it.
func New(opts Options) (*Watcher, error) {
	if opts.Run == nil {
		return nil, ErrNoRun
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s: not a directory", root)
	}
	opts.Root = root

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{opts: opts, fsw: fsw, paths: make(map[string]bool)}, nil
}

// Run blocks until ctx is cancelled. It returns nil on cancellation and
// closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	if err := w.watchTree(w.opts.Root); err != nil {
		return err
	}
	logger.Info("watching import folder", "root", w.opts.Root, "debounce", w.opts.Debounce)

	trigger := make(chan struct{}, 1)
	if w.opts.Initial {
		trigger <- struct{}{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.events(gctx, trigger) })
	g.Go(func() error { return w.runner(gctx, trigger) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return nil
	}
	return err
}

// events forwards relevant filesystem events to trigger.
func (w *Watcher) events(ctx context.Context, trigger chan<- struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return errClosed
			}
			if !w.relevant(event) {
				continue
			}
			logger.Debug("import folder changed", "path", event.Name, "op", event.Op.String())
			select {
			case trigger <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errClosed
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if w.opts.Skip != nil && w.opts.Skip(event.Name) {
		return false
	}
	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			_ = w.watchTree(event.Name)
		}
		return true
	case event.Has(fsnotify.Write):
		return true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.unwatch(event.Name)
	}
	return false
}

// runner waits for a quiet period after the last trigger, then runs.
func (w *Watcher) runner(ctx context.Context, trigger <-chan struct{}) error {
	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-trigger:
			timer.Reset(w.opts.Debounce)

		case <-timer.C:
			start := time.Now()
			if err := w.opts.Run(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("watch run failed", "error", err)
				continue
			}
			logger.Debug("watch run finished", "elapsed", time.Since(start))
		}
	}
}

// watchTree adds root and every directory under it. Symlinks and skipped
// paths are not followed.
func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			return nil //nolint:nilerr // skip unreadable subtrees
		}
		if d.Type()&fs.ModeSymlink != 0 || !d.IsDir() {
			return nil
		}
		if path != root && w.opts.Skip != nil && w.opts.Skip(path) {
			return filepath.SkipDir
		}
		return w.addWatch(path)
	})
}

func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		logger.Warn("failed to add watch", "path", path, "error", err)
		return err
	}
	w.paths[path] = true
	return nil
}

func (w *Watcher) unwatch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for p := range w.paths {
		if p == path || isSubPath(p, path) {
			_ = w.fsw.Remove(p)
			delete(w.paths, p)
		}
	}
}

// Close releases the underlying watcher. It is safe to call twice.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.paths = make(map[string]bool)
	return w.fsw.Close()
}

func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
