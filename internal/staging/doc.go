// Package staging holds the non-destructive edit state of one viewer.
//
// A Store tracks three paths. The original is the file the user opened. The
// pending path, when set, is a PNG preview produced by the last transform
// and not yet committed. The display path is derived from the other two:
//
//	display = pending, if a preview is pending
//	        = original, otherwise
//
// # States
//
// The store is Clean (no pending preview) or Dirty (one pending preview).
//
//   - SetOriginalPath: any state -> Clean
//   - GrayPreview, ApplyThresholdMapping, CleanupScatteredPixels:
//     any state -> Dirty, always transforming a fresh decode of the original
//     so edits never accumulate
//   - SaveProcessed: Dirty -> Clean, preview bytes replace the original
//   - RefreshDisplay, CleanupTempFiles: no state change
//
// # Errors
//
// Every operation that can fail returns an error and leaves the state as it
// was. State is only updated after the preview file is written, and a
// commit only after the copy over the original succeeded. Nothing is
// retried.
//
// # Notifications
//
// Changes are reported to a Notifier as three argument-less signals:
// ImagePathChanged, DisplayPathChanged and HasPendingChanged.
//
// # Concurrency
//
// A Store has a single owner goroutine. The file watcher it starts runs on
// its own goroutine and only communicates through the channel returned by
// WatchChanges; the owner passes each received value to
// HandleExternalChange.
package staging
