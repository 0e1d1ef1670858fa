// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Options.Debounce is not set.
const DefaultDebounce = 500 * time.Millisecond

// clearSequence clears an ANSI terminal and moves the cursor home.
const clearSequence = "\033[2J\033[H"

// defaultIgnores are excluded on top of Options.Ignore: VCS metadata,
// dependency caches, editor swap files and OS metadata.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/__pycache__/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

var (
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watcher already running")
	// ErrInvalidPattern is the sentinel error wrapped by InvalidPatternError.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

type (
	// ChangeFunc receives the sorted paths, relative to the watched root, that
	// changed since the previous call.
	ChangeFunc func(ctx context.Context, changed []string) error

	// Options configures a Watcher.
	Options struct {
		// Dir is the root of the watched tree; the working directory when empty.
		Dir string
		// Patterns select the files whose changes count. Empty means every file.
		Patterns []string
		// Ignore lists more patterns to exclude besides the built-in ones.
		Ignore []string
		// Debounce is the quiet period before OnChange is called.
		Debounce time.Duration
		// Clear writes an ANSI clear-screen sequence to Output before each call.
		Clear bool
		// Output receives the clear-screen sequence; os.Stdout when nil.
		Output io.Writer
		// Logger reports skipped and failed runs; a discarding logger when nil.
		Logger *log.Logger
		// OnChange is called after each burst of changes.
		OnChange ChangeFunc
	}

	// InvalidPatternError reports a pattern doublestar cannot parse.
	InvalidPatternError struct {
		// Kind is "watch" or "ignore".
		Kind    string
		Pattern string
	}

	// Watcher monitors a directory tree. Run may be called once.
	Watcher struct {
		opts    Options
		root    string
		ignores []string
		fsw     *fsnotify.Watcher
		logger  *log.Logger
		started atomic.Bool

		mu      sync.Mutex
		pending map[string]struct{}
		timer   *time.Timer
		busy    atomic.Bool
	}
)

// Error implements the error interface.
func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q", e.Kind, e.Pattern)
}

// Unwrap returns ErrInvalidPattern for errors.Is compatibility.
func (e *InvalidPatternError) Unwrap() error { return ErrInvalidPattern }

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

// New validates opts and registers the directories under the root.
func New(opts Options) (*Watcher, error) {
	if err := validatePatterns("watch", opts.Patterns); err != nil {
		return nil, err
	}
	if err := validatePatterns("ignore", opts.Ignore); err != nil {
		return nil, err
	}

	root := opts.Dir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", opts.Dir, err)
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		opts:    opts,
		root:    root,
		ignores: append(slices.Clone(defaultIgnores), opts.Ignore...),
		fsw:     fsw,
		logger:  logger,
		pending: make(map[string]struct{}),
	}

	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the absolute path of the watched tree.
func (w *Watcher) Root() string { return w.root }

// Run handles events until ctx is done, then releases the watcher. It returns
// nil on cancellation and an error when the watcher breaks down.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("file watcher event stream closed")
			}
			w.handle(ctx, ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("file watcher error stream closed")
			}
			if isFatal(err) {
				return fmt.Errorf("file watcher failed: %w", err)
			}
			w.logger.Warn("File watcher error", "err", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	rel := w.relative(ev.Name)
	if w.ignored(rel) {
		return
	}

	// New directories are watched as well, whatever the patterns say.
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("Cannot watch new directory", "dir", rel, "err", err)
			}
			return
		}
	}

	if !w.selected(rel) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[rel] = struct{}{}
	w.schedule(ctx)
}

// schedule (re)arms the debounce timer. w.mu must be held.
func (w *Watcher) schedule(ctx context.Context) {
	if w.timer != nil {
		w.timer.Reset(w.opts.Debounce)
		return
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() { w.fire(ctx) })
}

// fire passes the pending paths to OnChange. A call that finds the previous
// one still running leaves the paths pending and tries again later.
func (w *Watcher) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !w.busy.CompareAndSwap(false, true) {
		w.logger.Debug("Previous run still in progress, postponing")
		w.mu.Lock()
		w.schedule(ctx)
		w.mu.Unlock()
		return
	}
	defer w.busy.Store(false)

	w.mu.Lock()
	changed := slices.Sorted(maps.Keys(w.pending))
	clear(w.pending)
	w.mu.Unlock()

	if len(changed) == 0 || w.opts.OnChange == nil {
		return
	}

	if w.opts.Clear {
		fmt.Fprint(w.opts.Output, clearSequence)
	}
	if err := w.opts.OnChange(ctx, changed); err != nil {
		w.logger.Error("Run after change failed", "err", err)
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if err := w.fsw.Close(); err != nil {
		w.logger.Warn("Cannot close file watcher", "err", err)
	}
}

// addTree registers dir and every directory below it that is not ignored.
// Unreadable directories are skipped with a warning.
func (w *Watcher) addTree(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("Skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel := w.relative(path)
		if rel != "." && (w.ignored(rel) || w.ignored(rel+"/")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to register %s: %w", dir, err)
	}
	return nil
}

func (w *Watcher) relative(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) ignored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) selected(rel string) bool {
	return len(w.opts.Patterns) == 0 || matchAny(w.opts.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func validatePatterns(kind string, patterns []string) error {
	for _, pattern := range patterns {
		if pattern == "" || !doublestar.ValidatePattern(pattern) {
			return &InvalidPatternError{Kind: kind, Pattern: pattern}
		}
	}
	return nil
}
