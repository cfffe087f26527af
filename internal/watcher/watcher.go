// Package watcher keeps a workspace index current by re-indexing files as
// they change on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"codeintel/internal/logging"
	"codeintel/internal/workspace"
)

// Config holds watcher settings.
type Config struct {
	// Debounce is how long a path must be quiet before it is re-indexed.
	Debounce time.Duration

	// Walk carries the skip rules and limits shared with directory walks.
	Walk workspace.WalkOptions

	// MaxWatches caps the number of watched directories.
	MaxWatches int
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() Config {
	return Config{
		Debounce:   500 * time.Millisecond,
		Walk:       workspace.DefaultWalkOptions(),
		MaxWatches: 4096,
	}
}

// Watcher re-indexes files under one root as fsnotify reports changes.
// Created and modified files are re-indexed; removed or renamed paths are
// dropped from the index, together with any entries below them.
type Watcher struct {
	index   *workspace.Index
	root    string
	cfg     Config
	ignorer *workspace.Ignorer
	fsw     *fsnotify.Watcher
	logger  *slog.Logger

	queue       chan string
	debounceMap map[string]*time.Timer
	debounceMu  sync.Mutex

	watches int
	ready   chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher for root. It does not watch anything until Run.
func New(idx *workspace.Index, root string, cfg Config, opts ...Option) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultConfig().Debounce
	}
	if cfg.MaxWatches <= 0 {
		cfg.MaxWatches = DefaultConfig().MaxWatches
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		index:       idx,
		root:        absRoot,
		cfg:         cfg,
		ignorer:     workspace.NewIgnorer(absRoot, cfg.Walk),
		fsw:         fsw,
		logger:      logging.Nop(),
		queue:       make(chan string, 256),
		debounceMap: make(map[string]*time.Timer),
		ready:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Ready is closed once Run has registered the initial watches.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches the root until ctx is cancelled. It returns an error only when
// the root itself cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.fsw.Add(w.root); err != nil {
		close(w.ready)
		return fmt.Errorf("watching %s: %w", w.root, err)
	}
	w.watches = 1
	w.watchTree(w.root)
	w.logger.Info("watching workspace", "root", w.root, "watches", w.watches)
	close(w.ready)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.indexWorker(ctx)
	}()

	defer func() {
		w.stopTimers()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// watchTree adds watches for every eligible directory below dir.
func (w *Watcher) watchTree(dir string) {
	var limitReached bool

	_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() || path == dir {
			return nil
		}
		if w.ignorer.SkipDir(path) {
			return filepath.SkipDir
		}
		if w.watches >= w.cfg.MaxWatches {
			if !limitReached {
				w.logger.Warn("reached max watches limit", "limit", w.cfg.MaxWatches, "root", w.root)
				limitReached = true
			}
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Debug("adding watch failed", "dir", path, "error", err)
			return nil
		}
		w.watches++
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.ignorer.SkipDir(path) {
				return
			}
			if w.watches >= w.cfg.MaxWatches {
				w.logger.Warn("reached max watches limit", "limit", w.cfg.MaxWatches, "dir", path)
			} else {
				if err := w.fsw.Add(path); err == nil {
					w.watches++
				}
				w.watchTree(path)
			}
		}
	}

	// A removed directory no longer stats as one, so only files are
	// filtered by name here.
	if w.ignorer.SkipFile(path) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.debounce(path)
}

// debounce resets the quiet-period timer for path.
func (w *Watcher) debounce(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounceMap[path]; ok {
		timer.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.debounceMu.Lock()
		delete(w.debounceMap, path)
		w.debounceMu.Unlock()

		select {
		case w.queue <- path:
			w.logger.Debug("queued reindex", "path", path)
		default:
			w.logger.Warn("index queue full, skipping", "path", path)
		}
	})
}

func (w *Watcher) stopTimers() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	for path, timer := range w.debounceMap {
		timer.Stop()
		delete(w.debounceMap, path)
	}
}

func (w *Watcher) indexWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			w.apply(ctx, path)
		}
	}
}

// apply brings the index in line with what is on disk at path.
func (w *Watcher) apply(ctx context.Context, path string) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		n := w.removeTree(path)
		w.logger.Debug("removed from index", "path", path, "entries", n)
	case err != nil:
		w.logger.Warn("stat failed", "path", path, "error", err)
	case info.IsDir():
		stats := w.index.IndexDirectory(ctx, path, w.cfg.Walk)
		w.logger.Debug("indexed new directory", "dir", path, "files", stats.Indexed)
	case !info.Mode().IsRegular():
		w.index.Remove(path)
		w.logger.Debug("skipped special file", "path", path, "mode", info.Mode().Type())
	case w.cfg.Walk.MaxFileSize > 0 && info.Size() > w.cfg.Walk.MaxFileSize:
		w.index.Remove(path)
	default:
		if err := w.index.IndexFile(path); err != nil {
			w.logger.Warn("reindex failed", "path", path, "error", err)
			return
		}
		w.logger.Debug("reindexed", "path", path)
	}
}

// removeTree drops path and every entry below it.
func (w *Watcher) removeTree(path string) int {
	n := 0
	if w.index.Remove(path) {
		n++
	}
	prefix := path + string(filepath.Separator)
	for _, p := range w.index.Files() {
		if strings.HasPrefix(p, prefix) && w.index.Remove(p) {
			n++
		}
	}
	return n
}
