package server

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/image-preview/internal/imaging"
	"github.com/ironsheep/image-preview/internal/staging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "viewer_gray_preview").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// ViewerState is the result of every state-changing tool.
type ViewerState struct {
	ImagePath   string `json:"imagePath"`
	DisplayPath string `json:"displayPath"`
	HasPending  bool   `json:"hasPending"`
	WatchedPath string `json:"watchedPath,omitempty"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Notifications raised by the tool are written before the response. Tool
// execution errors return a JSON-RPC error response with code -32000 and
// leave the viewer state unchanged.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Error().Err(err).Str("tool", params.Name).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// State
	case "viewer_set_image_path":
		return s.handleSetImagePath(args)
	case "viewer_state":
		return s.state(), nil

	// Transforms
	case "viewer_gray_preview":
		return s.afterOp(s.store.GrayPreview())
	case "viewer_apply_threshold_mapping":
		return s.handleApplyThresholdMapping(args)
	case "viewer_cleanup_scattered_pixels":
		return s.afterOp(s.store.CleanupScatteredPixels())

	// Commit and housekeeping
	case "viewer_save_processed":
		return s.afterOp(s.store.SaveProcessed())
	case "viewer_refresh_display":
		return s.afterOp(s.store.RefreshDisplay())
	case "viewer_cleanup_temp_files":
		return s.afterOp(s.store.CleanupTempFiles())
	case "viewer_start_watcher":
		return s.handleStartWatcher(args)

	// Inspection
	case "viewer_sample_color":
		return s.handleSampleColor(args)
	case "viewer_image_info":
		return s.handleImageInfo()

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func (s *Server) state() *ViewerState {
	return &ViewerState{
		ImagePath:   s.store.ImagePath(),
		DisplayPath: s.store.DisplayPath(),
		HasPending:  s.store.HasPending(),
		WatchedPath: s.store.WatchedPath(),
	}
}

// afterOp turns the outcome of a store operation into a tool result.
func (s *Server) afterOp(err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return s.state(), nil
}

// decodeArgs unmarshals tool arguments, treating missing arguments as an
// empty object.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}
	return nil
}

type setImagePathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleSetImagePath(args json.RawMessage) (interface{}, error) {
	var a setImagePathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	s.store.SetOriginalPath(a.Path)
	return s.state(), nil
}

// handleApplyThresholdMapping hands the raw arguments to the store, which
// parses them as the threshold payload.
func (s *Server) handleApplyThresholdMapping(args json.RawMessage) (interface{}, error) {
	return s.afterOp(s.store.ApplyThresholdMapping(string(args)))
}

type startWatcherArgs struct {
	Path string `json:"path"`
}

type startWatcherResult struct {
	Watching bool   `json:"watching"`
	Path     string `json:"path"`
}

// handleStartWatcher watches the given path, or the current original when
// none is given. A failed start is a result, not an error.
func (s *Server) handleStartWatcher(args json.RawMessage) (interface{}, error) {
	var a startWatcherArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		a.Path = s.store.ImagePath()
	}
	if a.Path == "" {
		return nil, staging.ErrNoOriginal
	}
	return &startWatcherResult{
		Watching: s.store.StartWatcher(a.Path),
		Path:     a.Path,
	}, nil
}

type sampleColorArgs struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// handleSampleColor reads one pixel of the displayed image.
func (s *Server) handleSampleColor(args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	path := s.store.DisplayPath()
	if path == "" {
		return nil, staging.ErrNoOriginal
	}
	img, err := imaging.Load(path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

func (s *Server) handleImageInfo() (interface{}, error) {
	path := s.store.DisplayPath()
	if path == "" {
		return nil, staging.ErrNoOriginal
	}
	return imaging.LoadImageInfo(path)
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
