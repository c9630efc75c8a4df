package watcher

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the minimum spacing between two forwarded changes.
const DefaultDebounce = 60 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Debounce is the cooldown after a forwarded change during which further
	// events are dropped. Zero means DefaultDebounce.
	Debounce time.Duration

	// Logger receives watch errors. The zero value discards them.
	Logger zerolog.Logger

	// now is the clock used for debouncing; tests replace it.
	now func() time.Time
}

// Watcher observes a single file and reports debounced modifications.
//
// One goroutine owns the fsnotify handle for the lifetime of the Watcher.
// It forwards a value on Changes for the first Write or Create event after
// the debounce window has elapsed and drops the rest. Close stops the
// goroutine and closes Changes.
type Watcher struct {
	path    string
	fs      *fsnotify.Watcher
	changes chan struct{}
	done    chan struct{}
	log     zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Start begins watching path, which must exist. The watch is not recursive.
func Start(path string, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.now == nil {
		opts.now = time.Now
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w := &Watcher{
		path: path,
		fs:   fsw,
		// one slot: a change waiting to be read already says "re-read"
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
		log:     opts.Logger.With().Str("component", "watcher").Str("path", path).Logger(),
	}

	go w.run(newDebouncer(opts.Debounce, opts.now))

	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Changes delivers one value per debounced modification of the watched file.
// It is closed after Close once the worker has exited.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops the watch and waits for the worker to exit. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		// closing the fsnotify handle closes its channels, which ends run
		w.closeErr = w.fs.Close()
		<-w.done
	})
	return w.closeErr
}

func (w *Watcher) run(d *debouncer) {
	defer close(w.done)
	defer close(w.changes)

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !d.allow() {
				w.log.Debug().Str("op", event.Op.String()).Msg("change suppressed")
				continue
			}
			w.log.Debug().Str("op", event.Op.String()).Msg("change forwarded")
			w.forward()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

// forward signals a change without blocking; a change already waiting in the
// buffer covers this one.
func (w *Watcher) forward() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

// debouncer decides whether an event falls outside the cooldown that
// follows the last forwarded one. It is owned by a single goroutine.
type debouncer struct {
	window time.Duration
	now    func() time.Time
	last   time.Time
}

func newDebouncer(window time.Duration, now func() time.Time) *debouncer {
	return &debouncer{window: window, now: now}
}

// allow reports whether an event arriving now should be forwarded and, if
// so, restarts the window. The first event is always forwarded.
func (d *debouncer) allow() bool {
	t := d.now()
	if !d.last.IsZero() && t.Sub(d.last) < d.window {
		return false
	}
	d.last = t
	return true
}
