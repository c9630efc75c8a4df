package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestDebouncer(t *testing.T) {
	tests := []struct {
		name string
		gaps []time.Duration // delay before each event after the first
		want int
	}{
		{"single event", nil, 1},
		{"10ms apart", []time.Duration{10 * time.Millisecond}, 1},
		{"100ms apart", []time.Duration{100 * time.Millisecond}, 2},
		{"exactly the window", []time.Duration{60 * time.Millisecond}, 2},
		{"just inside the window", []time.Duration{59 * time.Millisecond}, 1},
		{"burst then quiet", []time.Duration{5 * time.Millisecond, 5 * time.Millisecond, 5 * time.Millisecond, 80 * time.Millisecond}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			d := newDebouncer(DefaultDebounce, clock.now)

			got := 0
			if d.allow() {
				got++
			}
			for _, gap := range tt.gaps {
				clock.advance(gap)
				if d.allow() {
					got++
				}
			}

			if got != tt.want {
				t.Errorf("forwarded %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestDebouncer_WindowRestartsOnlyOnForward(t *testing.T) {
	clock := newFakeClock()
	d := newDebouncer(DefaultDebounce, clock.now)

	if !d.allow() {
		t.Fatal("first event should be forwarded")
	}

	// dropped events do not extend the window
	clock.advance(40 * time.Millisecond)
	if d.allow() {
		t.Fatal("event at 40ms should be dropped")
	}
	clock.advance(30 * time.Millisecond)
	if !d.allow() {
		t.Fatal("event at 70ms should be forwarded")
	}
}

func TestDebouncer_FirstEventImmediatelyForwarded(t *testing.T) {
	d := newDebouncer(time.Hour, time.Now)
	if !d.allow() {
		t.Error("first event should be forwarded regardless of window")
	}
}

// countChanges drains w.Changes until it closes and returns how many values
// arrived.
func countChanges(w *Watcher) <-chan int {
	out := make(chan int, 1)
	go func() {
		n := 0
		for range w.Changes() {
			n++
		}
		out <- n
	}()
	return out
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestStart_NonExistentPath(t *testing.T) {
	_, err := Start(filepath.Join(t.TempDir(), "missing.png"), Options{})
	if err == nil {
		t.Error("Start should fail for a missing file")
	}
}

func TestWatcher_ForwardsModification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	writeFile(t, path, "v1")

	w, err := Start(path, Options{})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Close()

	if w.Path() != path {
		t.Errorf("Path: got %s, want %s", w.Path(), path)
	}

	writeFile(t, path, "v2")

	select {
	case _, ok := <-w.Changes():
		if !ok {
			t.Fatal("Changes closed before a change arrived")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change forwarded after writing the watched file")
	}
}

func TestWatcher_SeparateWritesForwardedSeparately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	writeFile(t, path, "v1")

	w, err := Start(path, Options{Debounce: 60 * time.Millisecond})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	counted := countChanges(w)

	writeFile(t, path, "v2")
	time.Sleep(250 * time.Millisecond)
	writeFile(t, path, "v3")
	time.Sleep(250 * time.Millisecond)

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case n := <-counted:
		if n < 2 {
			t.Errorf("forwarded %d changes, want at least 2", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Changes was not closed after Close")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.png")
	writeFile(t, path, "v1")

	w, err := Start(path, Options{})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	counted := countChanges(w)

	writeFile(t, filepath.Join(dir, "image.png.gray.tmp.png"), "preview")
	time.Sleep(200 * time.Millisecond)
	w.Close()

	if n := <-counted; n != 0 {
		t.Errorf("forwarded %d changes for a sibling file, want 0", n)
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	writeFile(t, path, "v1")

	w, err := Start(path, Options{})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	if _, ok := <-w.Changes(); ok {
		t.Error("Changes should be closed after Close")
	}
}
