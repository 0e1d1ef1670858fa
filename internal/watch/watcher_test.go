// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

const testDebounce = 50 * time.Millisecond

// collector records every OnChange call.
type collector struct {
	mu    sync.Mutex
	calls [][]string
	fired chan struct{}
}

func newCollector() *collector {
	return &collector{fired: make(chan struct{}, 16)}
}

func (c *collector) onChange(_ context.Context, changed []string) error {
	c.mu.Lock()
	c.calls = append(c.calls, changed)
	c.mu.Unlock()
	c.fired <- struct{}{}
	return nil
}

func (c *collector) snapshot() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.calls)
}

func (c *collector) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for OnChange")
	}
}

// start runs w until the test ends and checks that Run returned cleanly.
func start(t *testing.T, w *Watcher) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Run() did not return after cancellation")
		}
	})
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatcher_Debounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := newCollector()
	w, err := New(Options{Dir: dir, Debounce: 150 * time.Millisecond, OnChange: c.onChange})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	start(t, w)

	for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
		writeFile(t, filepath.Join(dir, name))
		time.Sleep(10 * time.Millisecond)
	}

	c.wait(t)
	time.Sleep(300 * time.Millisecond)

	calls := c.snapshot()
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1: %v", len(calls), calls)
	}
	if want := []string{"a.txt", "b.txt", "c.txt"}; !slices.Equal(calls[0], want) {
		t.Errorf("changed = %v, want %v", calls[0], want)
	}
}

func TestWatcher_PatternsAndIgnores(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := newCollector()
	w, err := New(Options{
		Dir:      dir,
		Patterns: []string{"**/*.go", "**/*.log"},
		Ignore:   []string{"**/*.log"},
		Debounce: testDebounce,
		OnChange: c.onChange,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	start(t, w)

	writeFile(t, filepath.Join(dir, "debug.log"))
	writeFile(t, filepath.Join(dir, "notes.txt"))
	time.Sleep(4 * testDebounce)
	writeFile(t, filepath.Join(dir, "main.go"))

	c.wait(t)
	for _, call := range c.snapshot() {
		if slices.Contains(call, "debug.log") || slices.Contains(call, "notes.txt") {
			t.Errorf("filtered file reported: %v", call)
		}
	}
	if calls := c.snapshot(); !slices.Contains(calls[len(calls)-1], "main.go") {
		t.Errorf("calls = %v, want main.go reported", calls)
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := newCollector()
	w, err := New(Options{Dir: dir, Patterns: []string{"**/*.cue"}, Debounce: testDebounce, OnChange: c.onChange})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	start(t, w)

	sub := filepath.Join(dir, "pkg")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(4 * testDebounce)
	writeFile(t, filepath.Join(sub, "build.cue"))

	c.wait(t)
	calls := c.snapshot()
	if !slices.Contains(calls[len(calls)-1], "pkg/build.cue") {
		t.Errorf("calls = %v, want pkg/build.cue", calls)
	}
}

func TestWatcher_Clear(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out bytes.Buffer
	c := newCollector()
	w, err := New(Options{Dir: dir, Debounce: testDebounce, Clear: true, Output: &out, OnChange: c.onChange})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	start(t, w)

	writeFile(t, filepath.Join(dir, "file.go"))
	c.wait(t)

	if !strings.Contains(out.String(), clearSequence) {
		t.Errorf("output = %q, want the clear sequence", out.String())
	}
}

func TestWatcher_CallsNeverOverlap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		mu      sync.Mutex
		running int
		overlap bool
		calls   int
	)
	done := make(chan struct{}, 4)
	w, err := New(Options{
		Dir:      dir,
		Debounce: testDebounce,
		OnChange: func(context.Context, []string) error {
			mu.Lock()
			running++
			calls++
			overlap = overlap || running > 1
			mu.Unlock()

			time.Sleep(200 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
			done <- struct{}{}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	start(t, w)

	writeFile(t, filepath.Join(dir, "first.txt"))
	time.Sleep(2 * testDebounce)
	writeFile(t, filepath.Join(dir, "second.txt"))

	for range 2 {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for the postponed call")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if overlap {
		t.Error("OnChange calls overlapped")
	}
	if calls != 2 {
		t.Errorf("got %d calls, want 2 (the second change must not be lost)", calls)
	}
}

func TestWatcher_RunTwice(t *testing.T) {
	t.Parallel()

	w, err := New(Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	start(t, w)
	time.Sleep(testDebounce)

	if err := w.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts Options
		kind string
	}{
		{"watch", Options{Patterns: []string{"[invalid"}}, "watch"},
		{"ignore", Options{Ignore: []string{"{a,b"}}, "ignore"},
		{"empty", Options{Patterns: []string{""}}, "watch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tt.opts.Dir = t.TempDir()
			_, err := New(tt.opts)

			var invalid *InvalidPatternError
			if !errors.As(err, &invalid) {
				t.Fatalf("New() error = %v, want *InvalidPatternError", err)
			}
			if invalid.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", invalid.Kind, tt.kind)
			}
			if !errors.Is(err, ErrInvalidPattern) {
				t.Error("error does not wrap ErrInvalidPattern")
			}
		})
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	w := &Watcher{ignores: DefaultIgnores()}
	tests := []struct {
		path    string
		ignored bool
	}{
		{".git/config", true},
		{"node_modules/express/index.js", true},
		{"src/__pycache__/mod.pyc", true},
		{"main.go.swp", true},
		{"backup~", true},
		{"sub/.DS_Store", true},
		{"main.go", false},
		{".gitignore", false},
		{"build.cue", false},
	}

	for _, tt := range tests {
		if got := w.ignored(tt.path); got != tt.ignored {
			t.Errorf("ignored(%q) = %v, want %v", tt.path, got, tt.ignored)
		}
	}
}
