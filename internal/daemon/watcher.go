package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/santiiagoleandro-ops/site-financas-llama/internal/logfields"
)

// BuildFunc runs a single site build.
type BuildFunc func(ctx context.Context) error

// Watcher rebuilds the site when files under its roots change.
//
// Events are debounced, and at most one build runs at a time. Changes that
// arrive while a build is running coalesce into a single follow-up build.
type Watcher struct {
	roots    []string
	ignored  []string
	debounce time.Duration
	build    BuildFunc

	readyOnce sync.Once
	ready     chan struct{}
}

// NewWatcher creates a watcher for the given root directories.
func NewWatcher(build BuildFunc, debounce time.Duration, roots ...string) (*Watcher, error) {
	if build == nil {
		return nil, errors.New("build function is required")
	}
	if debounce <= 0 {
		return nil, fmt.Errorf("debounce must be positive, got %s", debounce)
	}
	if len(roots) == 0 {
		return nil, errors.New("at least one root directory is required")
	}
	w := &Watcher{debounce: debounce, build: build, ready: make(chan struct{})}
	for _, r := range roots {
		if r == "" {
			continue
		}
		w.roots = append(w.roots, filepath.Clean(r))
	}
	return w, nil
}

// IgnoreDir excludes a directory tree, typically the output root, from watching.
func (w *Watcher) IgnoreDir(dir string) {
	if dir == "" {
		return
	}
	if abs, err := filepath.Abs(dir); err == nil {
		w.ignored = append(w.ignored, abs)
	}
}

// Ready is closed once Run has registered its watches.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is canceled. It waits for an in-flight build before returning.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()

	watched := 0
	for _, root := range w.roots {
		info, statErr := os.Stat(root)
		if statErr != nil || !info.IsDir() {
			slog.Warn("Skipping watch root", logfields.Path(root), logfields.Error(statErr))
			continue
		}
		w.addDirsRecursive(fw, root)
		watched++
	}
	if watched == 0 {
		return errors.New("no watchable directories")
	}

	rebuildReq, trigger, stopDebounce := newDebouncer(w.debounce)
	defer stopDebounce()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.rebuildLoop(ctx, rebuildReq)
	}()

	slog.Info("Watching for changes", logfields.Count(len(fw.WatchList())))
	w.readyOnce.Do(func() { close(w.ready) })

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				wg.Wait()
				return nil
			}
			w.handleFileEvent(fw, ev, trigger)
		case werr, ok := <-fw.Errors:
			if !ok {
				wg.Wait()
				return nil
			}
			slog.Warn("watcher error", logfields.Error(werr))
		}
	}
}

func (w *Watcher) rebuildLoop(ctx context.Context, rebuildReq <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			slog.Info("Change detected; rebuilding site")
			if err := w.build(ctx); err != nil {
				slog.Warn("rebuild failed", logfields.Error(err))
			}
		}
	}
}

func (w *Watcher) handleFileEvent(fw *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) || w.isIgnoredPath(ev.Name) {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(fw, ev.Name)
		}
	}
	if ev.Op == fsnotify.Chmod {
		return
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || w.isIgnoredPath(path)) {
			return filepath.SkipDir
		}
		if addErr := fw.Add(path); addErr != nil {
			slog.Warn("watch add failed", logfields.Path(path), logfields.Error(addErr))
		}
		return nil
	})
}

func (w *Watcher) isIgnoredPath(path string) bool {
	if len(w.ignored) == 0 {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range w.ignored {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// newDebouncer returns a request channel, a trigger that fires it after a quiet
// window, and a stop function.
func newDebouncer(window time.Duration) (<-chan struct{}, func(), func()) {
	var mu sync.Mutex
	var timer *time.Timer
	req := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(window, func() {
			select {
			case req <- struct{}{}:
			default:
			}
		})
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return req, trigger, stop
}

// shouldIgnoreEvent returns true for filesystem events that should not trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	// Editor swap and backup files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasSuffix(base, ".tmp") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
