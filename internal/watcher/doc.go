// Package watcher reports external modifications of a single image file.
//
// A Watcher wraps one fsnotify handle and one goroutine. Write and Create
// events on the watched file are debounced: the first event is forwarded,
// and every event within the debounce window after a forwarded one is
// dropped. Forwarded changes arrive on a channel, so the owner applies them
// on its own goroutine and never shares state with the worker.
//
// Editors that save by writing a new file and renaming it over the old one
// replace the inode; on Linux the watch then stops reporting. Callers that
// need to survive that start a new Watcher.
package watcher
