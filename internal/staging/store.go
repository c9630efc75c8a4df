package staging

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/image-preview/internal/imaging"
	"github.com/ironsheep/image-preview/internal/tempfiles"
	"github.com/ironsheep/image-preview/internal/watcher"
)

// ErrNoOriginal is returned by operations that need an original image when
// none has been set.
var ErrNoOriginal = errors.New("no original image loaded")

// Notifier receives state change signals. Each method means "re-read the
// corresponding getter"; none carries a value.
type Notifier interface {
	ImagePathChanged()
	DisplayPathChanged()
	HasPendingChanged()
}

// Options configures a Store.
type Options struct {
	// Notifier receives change signals. Nil discards them.
	Notifier Notifier

	// Logger receives warnings for tolerated failures.
	Logger zerolog.Logger

	// Debounce is passed to every watcher the store starts.
	Debounce time.Duration
}

// Store tracks the original image, the pending preview and the watcher for
// one viewer.
//
// A Store is not safe for concurrent use. All methods must be called from
// the goroutine that owns it; changes detected by the watcher are delivered
// to that goroutine through WatchChanges.
type Store struct {
	original string
	pending  string // empty when clean

	watch    *watcher.Watcher
	debounce time.Duration

	notify  Notifier
	log     zerolog.Logger
	baseLog zerolog.Logger // handed to watchers
}

// New creates a clean store with no original image.
func New(opts Options) *Store {
	n := opts.Notifier
	if n == nil {
		n = nopNotifier{}
	}
	return &Store{
		notify:   n,
		log:      opts.Logger.With().Str("component", "staging").Logger(),
		baseLog:  opts.Logger,
		debounce: opts.Debounce,
	}
}

// ImagePath returns the original image path.
func (s *Store) ImagePath() string {
	return s.original
}

// DisplayPath returns the path to render: the pending preview if there is
// one, the original otherwise.
func (s *Store) DisplayPath() string {
	if s.pending != "" {
		return s.pending
	}
	return s.original
}

// HasPending reports whether a preview is waiting to be committed.
func (s *Store) HasPending() bool {
	return s.pending != ""
}

// PendingPath returns the pending preview path, or "" when clean.
func (s *Store) PendingPath() string {
	return s.pending
}

// SetOriginalPath makes path the original image and returns to the clean
// state. A preview staged for the previous original is forgotten but its
// file is left on disk; CleanupTempFiles removes it.
func (s *Store) SetOriginalPath(path string) {
	hadPending := s.pending != ""

	s.original = path
	s.pending = ""

	s.log.Debug().Str("path", path).Msg("original set")
	s.notify.ImagePathChanged()
	if hadPending {
		s.notify.DisplayPathChanged()
		s.notify.HasPendingChanged()
	}
}

// GrayPreview stages a grayscale rendition of the original.
func (s *Store) GrayPreview() error {
	return s.stage(tempfiles.Gray, imaging.GrayPreview)
}

// ApplyThresholdMapping stages a threshold quantization of the original.
// payload is a JSON object such as {"stops":[64,128],"averageMode":false}.
// A malformed payload leaves the state untouched.
func (s *Store) ApplyThresholdMapping(payload string) error {
	if s.original == "" {
		return ErrNoOriginal
	}

	spec, err := imaging.ParseThresholdSpec([]byte(payload))
	if err != nil {
		return err
	}

	return s.stage(tempfiles.Threshold, func(src *image.NRGBA) *image.NRGBA {
		return imaging.ApplyThreshold(src, spec)
	})
}

// CleanupScatteredPixels stages a denoised rendition of the original.
func (s *Store) CleanupScatteredPixels() error {
	return s.stage(tempfiles.Cleanup, imaging.CleanupScattered)
}

// stage runs transform on a fresh decode of the original and makes the
// result the pending preview. State changes only after the preview file has
// been written.
func (s *Store) stage(kind tempfiles.Kind, transform func(*image.NRGBA) *image.NRGBA) error {
	if s.original == "" {
		return ErrNoOriginal
	}

	src, err := imaging.Load(s.original)
	if err != nil {
		return fmt.Errorf("failed to load original %s: %w", s.original, err)
	}

	out := tempfiles.Path(s.original, kind)
	if err := tempfiles.Write(transform(src), out); err != nil {
		return err
	}

	if prev := s.pending; prev != "" && prev != out {
		if err := tempfiles.Remove(prev); err != nil {
			s.log.Warn().Err(err).Str("path", prev).Msg("stale preview not removed")
		}
	}

	s.pending = out
	s.log.Debug().Str("kind", kind.String()).Str("path", out).Msg("preview staged")
	s.notify.DisplayPathChanged()
	s.notify.HasPendingChanged()
	return nil
}

// SaveProcessed commits the pending preview: its bytes replace the original
// file and the preview is deleted. Without a pending preview it does
// nothing.
//
// The original ends up holding PNG bytes whatever its previous format. If
// the copy fails nothing changes; if only the delete fails the commit still
// stands.
func (s *Store) SaveProcessed() error {
	if s.pending == "" {
		return nil
	}

	if err := tempfiles.Copy(s.pending, s.original); err != nil {
		return fmt.Errorf("failed to commit preview: %w", err)
	}
	if err := tempfiles.Remove(s.pending); err != nil {
		s.log.Warn().Err(err).Str("path", s.pending).Msg("committed preview not removed")
	}

	s.log.Info().Str("path", s.original).Str("from", s.pending).Msg("preview committed")
	s.pending = ""
	s.notify.ImagePathChanged()
	s.notify.DisplayPathChanged()
	s.notify.HasPendingChanged()
	return nil
}

// RefreshDisplay resynchronizes the display after the original changed on
// disk.
//
// With a pending preview, the original's current bytes are copied over the
// preview file. The transform is not reapplied, so the display shows the
// original while HasPending stays true. Without a pending preview only
// ImagePathChanged is raised.
func (s *Store) RefreshDisplay() error {
	if s.pending == "" {
		s.notify.ImagePathChanged()
		return nil
	}

	if err := tempfiles.Copy(s.original, s.pending); err != nil {
		return fmt.Errorf("failed to refresh display: %w", err)
	}

	s.notify.DisplayPathChanged()
	s.notify.ImagePathChanged()
	return nil
}

// CleanupTempFiles deletes the pending preview file and every other preview
// variant derived from the original's name. The tracked state is left as it
// is, so HasPending may still report true afterwards.
func (s *Store) CleanupTempFiles() error {
	var errs []error

	if s.pending != "" {
		if err := tempfiles.Remove(s.pending); err != nil {
			errs = append(errs, err)
		} else {
			s.log.Info().Str("path", s.pending).Msg("cleaned up temporary file")
		}
	}

	if s.original != "" {
		removed, err := tempfiles.Sweep(s.original)
		for _, p := range removed {
			s.log.Debug().Str("path", p).Msg("swept temporary file")
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// StartWatcher watches path for external modifications, replacing any
// active watch. It reports whether the new watch is running; on failure no
// watch is active.
func (s *Store) StartWatcher(path string) bool {
	s.stopWatcher()

	w, err := watcher.Start(path, watcher.Options{
		Debounce: s.debounce,
		Logger:   s.baseLog,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("watch not started")
		return false
	}

	s.watch = w
	s.log.Debug().Str("path", path).Msg("watch started")
	return true
}

// WatchChanges returns the active watcher's change channel, or nil when no
// watch is running. A nil channel blocks forever in a select, so owners can
// always include it.
func (s *Store) WatchChanges() <-chan struct{} {
	if s.watch == nil {
		return nil
	}
	return s.watch.Changes()
}

// WatchedPath returns the file under watch, or "" when no watch is running.
func (s *Store) WatchedPath() string {
	if s.watch == nil {
		return ""
	}
	return s.watch.Path()
}

// HandleExternalChange applies one change received from WatchChanges by
// raising ImagePathChanged, prompting the observer to reload.
func (s *Store) HandleExternalChange() {
	s.log.Debug().Str("path", s.original).Msg("external change")
	s.notify.ImagePathChanged()
}

// Close stops the active watch.
func (s *Store) Close() error {
	return s.stopWatcher()
}

func (s *Store) stopWatcher() error {
	if s.watch == nil {
		return nil
	}
	err := s.watch.Close()
	s.watch = nil
	return err
}

type nopNotifier struct{}

func (nopNotifier) ImagePathChanged()   {}
func (nopNotifier) DisplayPathChanged() {}
func (nopNotifier) HasPendingChanged()  {}
