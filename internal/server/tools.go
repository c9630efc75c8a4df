package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// noArgs is the schema of tools without parameters.
func noArgs() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// State
		{
			Name:        "viewer_set_image_path",
			Description: "Open an image as the original. Discards any pending preview without deleting its file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "viewer_state",
			Description: "Return the original path, the path to display, whether a preview is pending, and the watched path.",
			InputSchema: noArgs(),
		},

		// Transforms
		{
			Name:        "viewer_gray_preview",
			Description: "Stage a grayscale preview of the original. Fully transparent pixels stay transparent; all others become opaque gray.",
			InputSchema: noArgs(),
		},
		{
			Name:        "viewer_apply_threshold_mapping",
			Description: "Stage a threshold preview of the original. Each pixel's luma selects a segment between ascending stops; segments map to evenly spaced grays, or to segment midpoints in average mode.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"stops": map[string]interface{}{
						"type":        "array",
						"description": "Distinct gray levels 0-255 bounding the segments; sorted before use",
						"items": map[string]interface{}{
							"type":    "integer",
							"minimum": 0,
							"maximum": 255,
						},
						"minItems": 1,
					},
					"averageMode": map[string]interface{}{
						"type":        "boolean",
						"description": "Map each segment to the midpoint of its bounds instead of an evenly spaced gray. Default false",
						"default":     false,
					},
				},
				"required": []string{"stops"},
			},
		},
		{
			Name:        "viewer_cleanup_scattered_pixels",
			Description: "Stage a preview of the original where every pixel whose color matches none of its opaque neighbors takes the most frequent neighbor color.",
			InputSchema: noArgs(),
		},

		// Commit and housekeeping
		{
			Name:        "viewer_save_processed",
			Description: "Commit the pending preview over the original file (as PNG) and delete the preview. Does nothing without a pending preview.",
			InputSchema: noArgs(),
		},
		{
			Name:        "viewer_refresh_display",
			Description: "Resynchronize after the original changed on disk. With a pending preview, the original's bytes are copied over the preview file.",
			InputSchema: noArgs(),
		},
		{
			Name:        "viewer_cleanup_temp_files",
			Description: "Delete the pending preview file and any preview files derived from the original's name. The pending state is not reset.",
			InputSchema: noArgs(),
		},
		{
			Name:        "viewer_start_watcher",
			Description: "Watch a file for external modifications, replacing any active watch. Changes raise imagePathChanged notifications.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "File to watch. Defaults to the current original",
					},
				},
			},
		},

		// Inspection
		{
			Name:        "viewer_sample_color",
			Description: "Get the color of one pixel of the displayed image as hex, RGBA, HSL and luma. Useful for choosing threshold stops.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0 = left edge)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0 = top edge)",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "viewer_image_info",
			Description: "Get the dimensions, format and file size of the displayed image.",
			InputSchema: noArgs(),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
