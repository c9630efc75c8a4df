package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/image-preview/internal/staging"
)

// Notification methods emitted when the staging state changes. None carries
// params; clients re-read the state with viewer_state.
const (
	MethodImagePathChanged   = "notifications/imagePathChanged"
	MethodDisplayPathChanged = "notifications/displayPathChanged"
	MethodHasPendingChanged  = "notifications/hasPendingChanged"
)

// Config configures a Server.
type Config struct {
	// In carries one JSON-RPC message per line.
	In io.Reader

	// Out receives responses and notifications, one per line.
	Out io.Writer

	Logger zerolog.Logger

	// Debounce is the watcher cooldown. Zero uses the watcher default.
	Debounce time.Duration

	// Version is reported in the initialize handshake.
	Version string
}

// Server bridges the staging store to a JSON-RPC client.
//
// All store access and all writes to Out happen on the goroutine running
// Run. A second goroutine only reads lines from In.
type Server struct {
	in      io.Reader
	enc     *json.Encoder
	store   *staging.Store
	log     zerolog.Logger
	version string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a server with a clean store. The store reports its changes
// back to the server, which turns them into notifications.
func New(cfg Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		in:      cfg.In,
		enc:     json.NewEncoder(cfg.Out),
		log:     cfg.Logger.With().Str("component", "server").Logger(),
		version: version,
	}
	s.store = staging.New(staging.Options{
		Notifier: s,
		Logger:   cfg.Logger,
		Debounce: cfg.Debounce,
	})
	return s
}

// Store returns the staging store. It must only be used before Run starts
// or from within request handling.
func (s *Server) Store() *staging.Store {
	return s.store
}

// Run serves requests until In is exhausted or ctx is cancelled, and
// applies changes reported by the file watcher in between. The active watch
// is stopped before Run returns.
func (s *Server) Run(ctx context.Context) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go s.readLines(ctx, lines, readErr)

	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("context done, shutting down")
			return s.store.Close()

		case line, ok := <-lines:
			if !ok {
				err := <-readErr
				return errors.Join(err, s.store.Close())
			}
			s.handleLine(line)

		case _, ok := <-s.store.WatchChanges():
			if ok {
				s.store.HandleExternalChange()
			}
		}
	}
}

// readLines feeds In to the owner goroutine line by line. It exits at EOF,
// on a read error, or once ctx is done and nobody takes the next line.
func (s *Server) readLines(ctx context.Context, lines chan<- []byte, readErr chan<- error) {
	defer close(lines)

	scanner := bufio.NewScanner(s.in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		select {
		case lines <- line:
		case <-ctx.Done():
			readErr <- nil
			return
		}
	}

	if err := scanner.Err(); err != nil {
		readErr <- fmt.Errorf("scanner error: %w", err)
		return
	}
	readErr <- nil
}

// handleLine decodes one message and writes the response, if any.
func (s *Server) handleLine(line []byte) {
	if len(line) == 0 {
		return
	}

	var req MCPRequest
	if err := json.Unmarshal(line, &req); err != nil {
		s.log.Warn().Err(err).Msg("failed to parse request")
		s.write(s.errorResponse(nil, -32700, "Parse error", err.Error()))
		return
	}

	if resp := s.handleRequest(&req); resp != nil {
		s.write(resp)
	}
}

func (s *Server) write(v interface{}) {
	if err := s.enc.Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode message")
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "image-preview",
				"version": s.version,
			},
		},
	}
}

// ImagePathChanged implements staging.Notifier.
func (s *Server) ImagePathChanged() { s.notify(MethodImagePathChanged) }

// DisplayPathChanged implements staging.Notifier.
func (s *Server) DisplayPathChanged() { s.notify(MethodDisplayPathChanged) }

// HasPendingChanged implements staging.Notifier.
func (s *Server) HasPendingChanged() { s.notify(MethodHasPendingChanged) }

func (s *Server) notify(method string) {
	s.log.Debug().Str("method", method).Msg("notify")
	s.write(&MCPNotification{JSONRPC: "2.0", Method: method})
}
