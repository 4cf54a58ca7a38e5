package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWatcher_DebouncesAndFilters(t *testing.T) {
	dir := t.TempDir()
	posts := filepath.Join(dir, "posts", "a")
	if err := os.MkdirAll(posts, 0755); err != nil {
		t.Fatal(err)
	}

	got := make(chan []string, 4)
	w, err := New([]string{dir}, func(_ context.Context, paths []string) { got <- paths })
	if err != nil {
		t.Fatal(err)
	}
	w.Debounce = 50 * time.Millisecond
	w.Filter = func(path string) bool { return !strings.HasSuffix(path, ".swp") }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	index := filepath.Join(posts, "index.md")
	for i := 0; i < 3; i++ {
		_ = os.WriteFile(index, []byte(strings.Repeat("x", i+1)), 0644)
	}
	_ = os.WriteFile(filepath.Join(posts, ".index.md.swp"), []byte("x"), 0644)

	select {
	case paths := <-got:
		if len(paths) != 1 || paths[0] != index {
			t.Errorf("paths = %v, want [%s]", paths, index)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case paths := <-got:
		t.Errorf("unexpected second burst %v", paths)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestWatcher_NoDirs(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "missing")}, func(context.Context, []string) {})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() without directories succeeded")
	}
}
