package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/starford/arbor/internal/overlay"
	"github.com/starford/arbor/internal/storage"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) cb(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, paths)
}

func (r *recorder) seen(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if slices.Contains(b, path) {
			return true
		}
	}
	return false
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func startWatch(t *testing.T, root string) *recorder {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	rec := &recorder{}
	go Watch(ctx, root, 50*time.Millisecond, logger, rec.cb)
	time.Sleep(100 * time.Millisecond)
	return rec
}

func TestWatch_NoteDirCreated(t *testing.T) {
	root := t.TempDir()
	rec := startWatch(t, root)

	dir := filepath.Join(root, "A.md.d")
	_ = os.MkdirAll(dir, 0o755)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen(dir)
	}, "new note directory not reported")
}

func TestWatch_NestedDirWatched(t *testing.T) {
	root := t.TempDir()
	rec := startWatch(t, root)

	parent := filepath.Join(root, "A.md.d")
	_ = os.MkdirAll(parent, 0o755)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen(parent)
	}, "parent not reported")

	file := filepath.Join(parent, "B.md")
	_ = os.WriteFile(file, []byte("b"), 0o644)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen(file)
	}, "file in new directory not reported")
}

func TestWatch_IgnoresSidecarAndTrash(t *testing.T) {
	root := t.TempDir()
	_ = os.MkdirAll(filepath.Join(root, storage.TrashDirName), 0o755)
	rec := startWatch(t, root)

	_ = os.WriteFile(filepath.Join(root, overlay.FileName), []byte(`{"sort":{}}`), 0o644)
	_ = os.WriteFile(filepath.Join(root, storage.TrashDirName, "x.md"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644)
	time.Sleep(300 * time.Millisecond)

	if n := rec.count(); n != 0 {
		t.Errorf("expected no callbacks, got %d", n)
	}
}

func TestWatch_DebounceBatches(t *testing.T) {
	root := t.TempDir()
	rec := startWatch(t, root)

	for _, name := range []string{"a.md", "b.md", "c.md"} {
		_ = os.WriteFile(filepath.Join(root, name), []byte(name), 0o644)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.seen(filepath.Join(root, "c.md"))
	}, "writes not reported")

	if n := rec.count(); n > 2 {
		t.Errorf("expected writes to be batched, got %d callbacks", n)
	}
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/ws/A.md", true},
		{"/ws/A.md.d", true},
		{"/ws/.md", false},
		{"/ws/readme.txt", false},
		{"/ws/plain", false},
	}
	for _, tt := range tests {
		if got := relevant(tt.path); got != tt.want {
			t.Errorf("relevant(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
