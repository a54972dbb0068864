// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
	fired chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 16)}
}

func (r *recorder) onChange(_ context.Context, changed []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, changed)
	r.mu.Unlock()
	r.fired <- struct{}{}
	return nil
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

func start(t *testing.T, w *Watcher) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	})
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func waitFired(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
}

func TestWatcher_TrackedFilesDebounced(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.sh"), filepath.Join(dir, "b.sh")
	write(t, a, "provide a 1\n")
	write(t, b, "provide b 1\n")

	rec := newRecorder()
	w, err := New(Config{Files: []string{a, b}, BaseDir: dir, Debounce: 100 * time.Millisecond, OnChange: rec.onChange})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	start(t, w)

	write(t, a, "provide a 2\n")
	time.Sleep(10 * time.Millisecond)
	write(t, b, "provide b 2\n")
	write(t, filepath.Join(dir, "untracked.txt"), "noise")

	waitFired(t, rec)
	time.Sleep(200 * time.Millisecond)

	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("callbacks = %d, want 1", len(calls))
	}
	if want := []string{a, b}; !slices.Equal(calls[0], want) {
		t.Errorf("changed = %v, want %v", calls[0], want)
	}
}

func TestWatcher_SetFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sub := filepath.Join(dir, "lib")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	old, added := filepath.Join(dir, "old.sh"), filepath.Join(sub, "new.sh")
	write(t, old, "")
	write(t, added, "")

	rec := newRecorder()
	w, err := New(Config{Files: []string{old}, BaseDir: dir, Debounce: 50 * time.Millisecond, OnChange: rec.onChange})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	w.SetFiles([]string{added})
	if got := w.Files(); !slices.Equal(got, []string{added}) {
		t.Errorf("Files() = %v", got)
	}
	start(t, w)

	write(t, old, "changed")
	write(t, added, "changed")
	waitFired(t, rec)

	if calls := rec.snapshot(); !slices.Equal(calls[0], []string{added}) {
		t.Errorf("changed = %v, want only the newly tracked file", calls[0])
	}
}

func TestWatcher_Patterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := newRecorder()
	w, err := New(Config{
		BaseDir:  dir,
		Patterns: []string{"**/*.sh"},
		Ignore:   []string{"vendor/**"},
		Debounce: 50 * time.Millisecond,
		OnChange: rec.onChange,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	start(t, w)

	if err := os.MkdirAll(filepath.Join(dir, "vendor"), 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	write(t, filepath.Join(dir, "vendor", "dep.sh"), "")
	write(t, filepath.Join(dir, "notes.txt"), "")
	write(t, filepath.Join(dir, "main.sh"), "")
	waitFired(t, rec)

	calls := rec.snapshot()
	if want := []string{filepath.Join(dir, "main.sh")}; !slices.Equal(calls[0], want) {
		t.Errorf("changed = %v, want %v", calls[0], want)
	}
}

func TestWatcher_InvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{BaseDir: t.TempDir(), Patterns: []string{"[unclosed"}}); err == nil {
		t.Error("New() with bad pattern succeeded")
	}
	if _, err := New(Config{BaseDir: t.TempDir(), Ignore: []string{"[unclosed"}}); err == nil {
		t.Error("New() with bad ignore succeeded")
	}
}

func TestWatcher_DoubleRun(t *testing.T) {
	t.Parallel()

	w, err := New(Config{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	start(t, w)
	time.Sleep(20 * time.Millisecond)

	if err := w.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestWatcher_ContextCancel(t *testing.T) {
	t.Parallel()

	w, err := New(Config{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestDefaultIgnores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rel  string
		want bool
	}{
		{".git/HEAD", true},
		{"lib/.main.sh.swp", true},
		{"main.sh~", true},
		{"lib/main.sh", false},
		{"system.config.cue", false},
	}
	for _, tt := range tests {
		if got := matchAny(DefaultIgnores(), tt.rel); got != tt.want {
			t.Errorf("ignored(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}

	ignores := DefaultIgnores()
	ignores[0] = "changed"
	if DefaultIgnores()[0] == "changed" {
		t.Error("DefaultIgnores() returned the backing slice")
	}
}

func TestIsOutside(t *testing.T) {
	t.Parallel()

	for rel, want := range map[string]bool{
		"..":                     true,
		filepath.Join("..", "x"): true,
		"..x":                    false,
		filepath.Join("a", "b"):  false,
	} {
		if got := isOutside(rel); got != want {
			t.Errorf("isOutside(%q) = %v, want %v", rel, got, want)
		}
	}
}
