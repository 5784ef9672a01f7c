package builtin

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gitiris/agentcore/pkg/tools"
)

// wellKnownDocs is the full set of paths project_docs concatenates for
// doc_type "context", in priority order, mirroring where a human
// contributor looks first for project conventions.
var wellKnownDocs = []string{
	"README.md",
	"AGENTS.md",
	"CLAUDE.md",
	"CONTRIBUTING.md",
	"CHANGELOG.md",
	".github/PULL_REQUEST_TEMPLATE.md",
	"docs/CONVENTIONS.md",
}

// docTypePaths maps the single-document doc_type values to the repo-root
// path each one reads.
var docTypePaths = map[string]string{
	"readme": "README.md",
	"agents": "AGENTS.md",
	"claude": "CLAUDE.md",
}

const maxDocBytes = 8 * 1024

// ProjectDocsTool surfaces a repository's own conventions (README, the
// agent-instruction files, or every well-known doc at once) so the model
// can match tone and structure instead of guessing.
type ProjectDocsTool struct{}

func (t ProjectDocsTool) Name() string { return "project_docs" }

func (t ProjectDocsTool) Description() string {
	return `Return project documentation content. doc_type "readme", "agents", or "claude" reads one conventional file; "context" concatenates every well-known doc that exists, labeled by path.`
}

func (t ProjectDocsTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"doc_type": map[string]any{
				"type":        "string",
				"enum":        []string{"readme", "agents", "claude", "context"},
				"description": "Which project document(s) to read.",
			},
		},
		"required":             []string{"doc_type"},
		"additionalProperties": false,
	}
}

func (t ProjectDocsTool) Execute(ctx context.Context, toolCtx *tools.ToolContext, input map[string]any) (tools.ToolResult, error) {
	docType, _ := input["doc_type"].(string)
	if docType == "" {
		return tools.NewErrorResultf("doc_type is required"), nil
	}

	if docType == "context" {
		var b strings.Builder
		found := 0
		for _, path := range wellKnownDocs {
			content, ok, err := t.readOne(toolCtx, path)
			if err != nil {
				return tools.NewErrorResultf("project_docs failed: %v", err), nil
			}
			if !ok {
				continue
			}
			found++
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", path, content)
		}
		if found == 0 {
			return tools.NewToolResult("No project documentation found"), nil
		}
		return tools.NewToolResult(strings.TrimRight(b.String(), "\n")), nil
	}

	path, ok := docTypePaths[docType]
	if !ok {
		return tools.NewErrorResultf("unknown doc_type %q", docType), nil
	}
	content, found, err := t.readOne(toolCtx, path)
	if err != nil {
		return tools.NewErrorResultf("project_docs failed: %v", err), nil
	}
	if !found {
		return tools.NewToolResult(fmt.Sprintf("%s: not found", path)), nil
	}
	return tools.NewToolResult(content), nil
}

// readOne reads path relative to the repository root. A missing file is
// reported via the bool return, not an error; only I/O failures beyond
// "does not exist" produce one.
func (t ProjectDocsTool) readOne(toolCtx *tools.ToolContext, path string) (string, bool, error) {
	abs, err := toolCtx.ValidatePath(path)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	if len(data) > maxDocBytes {
		return string(data[:maxDocBytes]) + "\n... (truncated)", true, nil
	}
	return string(data), true, nil
}

// RegisterDocsTools registers the project_docs tool with the registry.
func RegisterDocsTools(registry *tools.Registry) {
	registry.MustRegister(ProjectDocsTool{})
}
