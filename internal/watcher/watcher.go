// Package watcher reports changed files so scenarios and scripts can be
// re-run while they are edited.
//
// Files are watched through their parent directory, which keeps working
// when an editor replaces a file instead of writing it in place. Added
// directories are watched recursively, including directories created
// later. Bursts of
// events are coalesced: the callback runs once the files have been quiet
// for the debounce delay.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before changes are reported.
const DefaultDebounce = 200 * time.Millisecond

// ErrWatcherClosed is returned when using a closed watcher.
var ErrWatcherClosed = errors.New("watcher is closed")

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExtensions limits directory watches to files with these extensions.
// Explicitly added files are always reported.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.exts = exts
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher watches files and directories for changes.
type Watcher struct {
	mu sync.Mutex

	fsw      *fsnotify.Watcher
	debounce time.Duration
	exts     []string

	files   map[string]bool // explicitly added files
	dirs    map[string]bool // added directories and their subdirectories
	watched map[string]bool // directories registered with fsnotify

	logger *zap.Logger
	closed bool
}

// New creates a watcher.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: DefaultDebounce,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		watched:  make(map[string]bool),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add watches a file, or a directory and all directories below it.
func (w *Watcher) Add(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	if info.IsDir() {
		return w.addTreeLocked(abs)
	}
	w.files[abs] = true
	return w.watchDirLocked(filepath.Dir(abs))
}

// addTreeLocked watches dir and every directory below it.
func (w *Watcher) addTreeLocked(dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		w.dirs[p] = true
		return w.watchDirLocked(p)
	})
}

func (w *Watcher) watchDirLocked(dir string) error {
	if w.watched[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.watched[dir] = true
	w.logger.Debug("watching", zap.String("path", dir))
	return nil
}

// addCreatedDir starts watching a directory created below a watched one.
func (w *Watcher) addCreatedDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || !w.dirs[filepath.Dir(path)] {
		return true
	}
	if err := w.addTreeLocked(path); err != nil {
		w.logger.Warn("watching new directory", zap.String("path", path), zap.Error(err))
	}
	return true
}

// Run delivers changed paths to fn until ctx is done or the watcher is
// closed. fn runs on the calling goroutine with paths sorted.
func (w *Watcher) Run(ctx context.Context, fn func(paths []string)) error {
	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			path := filepath.Clean(ev.Name)
			if ev.Has(fsnotify.Create) && w.addCreatedDir(path) {
				continue
			}
			if !w.matches(path) {
				continue
			}
			pending[path] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			w.logger.Debug("files changed", zap.Strings("paths", paths))
			fn(paths)
		}
	}
}

// matches reports whether a changed path is one the caller asked for.
func (w *Watcher) matches(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.files[path] {
		return true
	}
	if !w.dirs[filepath.Dir(path)] {
		return false
	}
	if len(w.exts) == 0 {
		return true
	}
	return slices.Contains(w.exts, filepath.Ext(path))
}

// Close stops the watcher. Run returns once its event channels close.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}
