// Package server exposes the image preview staging engine to a viewer over
// JSON-RPC 2.0.
//
// The viewer front end is a separate process. It sends tool calls to change
// or query the staging state and receives notifications telling it which
// paths to re-read.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Tools
//
// State:
//   - viewer_set_image_path: Open an original image
//   - viewer_state: Report imagePath, displayPath, hasPending, watchedPath
//
// Transforms (each stages a preview of the original):
//   - viewer_gray_preview
//   - viewer_apply_threshold_mapping
//   - viewer_cleanup_scattered_pixels
//
// Commit and housekeeping:
//   - viewer_save_processed: Commit the preview over the original
//   - viewer_refresh_display: Resynchronize after an external edit
//   - viewer_cleanup_temp_files: Delete preview files
//   - viewer_start_watcher: Watch a file for external edits
//
// Inspection (read the displayed image):
//   - viewer_sample_color
//   - viewer_image_info
//
// # Notifications
//
// State changes are sent as parameterless JSON-RPC notifications:
//
//	notifications/imagePathChanged
//	notifications/displayPathChanged
//	notifications/hasPendingChanged
//
// Notifications caused by a tool call are written before its response. A
// debounced external modification of the watched file produces an
// imagePathChanged notification between requests.
//
// # Concurrency
//
// Run owns the store. One helper goroutine reads stdin and hands lines to
// Run; the file watcher hands changes to Run through a channel. Request
// handling, watcher changes and every write to stdout happen on the Run
// goroutine, so the store needs no locking.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A failed tool leaves the staging state unchanged and raises no
// notifications.
package server
