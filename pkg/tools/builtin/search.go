package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/gitiris/agentcore/pkg/tools"
)

// defaultContextLines matches §4.3.6's context_lines default.
const defaultContextLines = 2

// CodeSearchTool searches tracked (plus untracked working) files for a
// literal or regular-expression pattern.
type CodeSearchTool struct{}

func (t CodeSearchTool) Name() string { return "code_search" }

func (t CodeSearchTool) Description() string {
	return "Search the repository for a regular expression, optionally scoped to a glob, with surrounding context lines. Returns results sorted by path, then line."
}

func (t CodeSearchTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{
				"type":        "string",
				"description": "Regular expression to search for",
			},
			"file_pattern": map[string]any{
				"type":        "string",
				"description": "Restrict the search to paths matching this glob, e.g. '*.go'",
			},
			"context_lines": map[string]any{
				"type":        "integer",
				"description": "Lines of context to include above and below each match. Defaults to 2.",
			},
			"max_results": map[string]any{
				"type":        "integer",
				"description": "Maximum number of matches to return (default 50, max 200)",
			},
		},
		"required":             []string{"pattern"},
		"additionalProperties": false,
	}
}

func (t CodeSearchTool) Execute(ctx context.Context, toolCtx *tools.ToolContext, input map[string]any) (tools.ToolResult, error) {
	pattern, ok := input["pattern"].(string)
	if !ok || pattern == "" {
		return tools.NewErrorResultf("pattern is required"), nil
	}
	filePattern, _ := input["file_pattern"].(string)

	contextLines := defaultContextLines
	if n, ok := input["context_lines"].(float64); ok {
		contextLines = int(n)
	}
	maxResults := 0
	if n, ok := input["max_results"].(float64); ok {
		maxResults = int(n)
	}

	matches, err := toolCtx.Repo.Search(ctx, pattern, filePattern, contextLines, maxResults)
	if err != nil {
		return tools.NewErrorResultf("code_search failed: %v", err), nil
	}
	if len(matches) == 0 {
		return tools.NewToolResult("No matches"), nil
	}

	var b strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&b, "%s:%d:\n%s\n\n", m.Path, m.Line, m.Excerpt)
	}
	return tools.NewToolResult(strings.TrimRight(b.String(), "\n")).WithMetadata("match_count", len(matches)), nil
}

// RegisterSearchTools registers the code_search tool with the registry.
func RegisterSearchTools(registry *tools.Registry) {
	registry.MustRegister(CodeSearchTool{})
}
