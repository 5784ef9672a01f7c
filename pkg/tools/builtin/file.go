package builtin

import (
	"context"
	"fmt"

	"github.com/gitiris/agentcore/pkg/tools"
)

// ReadFileTool reads file contents from the repository working tree.
type ReadFileTool struct{}

func (t ReadFileTool) Name() string { return "file_read" }

func (t ReadFileTool) Description() string {
	return "Read a file from the repository. Optionally restrict to a line range. Large files are truncated with a marker."
}

func (t ReadFileTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Path to the file, relative to the repository root",
			},
			"start_line": map[string]any{
				"type":        "integer",
				"description": "1-indexed line to start reading from. Omit to read from the top.",
			},
			"num_lines": map[string]any{
				"type":        "integer",
				"description": "Number of lines to read. Omit to read to the end.",
			},
		},
		"required":             []string{"path"},
		"additionalProperties": false,
	}
}

func (t ReadFileTool) Execute(ctx context.Context, toolCtx *tools.ToolContext, input map[string]any) (tools.ToolResult, error) {
	path, ok := input["path"].(string)
	if !ok || path == "" {
		return tools.NewErrorResultf("path is required"), nil
	}

	if _, err := toolCtx.ValidatePath(path); err != nil {
		return tools.NewErrorResult(err), nil
	}

	startLine := 0
	if n, ok := input["start_line"].(float64); ok {
		startLine = int(n)
	}
	numLines := 0
	if n, ok := input["num_lines"].(float64); ok {
		numLines = int(n)
	}

	content, binary, err := toolCtx.Repo.ReadFile(path, startLine, numLines)
	if err != nil {
		return tools.NewErrorResultf("file_read failed: %v", err), nil
	}
	if binary {
		return tools.NewToolResult(fmt.Sprintf("%s looks like a binary file; contents are not shown.", path)), nil
	}
	return tools.NewToolResult(content), nil
}

// RegisterFileTools registers all file tools with the registry.
func RegisterFileTools(registry *tools.Registry) {
	registry.MustRegister(ReadFileTool{})
}
