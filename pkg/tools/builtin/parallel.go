package builtin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gitiris/agentcore/pkg/tools"
)

// ParallelAnalyzeTool fans a changeset out to independent sub-agents, one
// per focus area, and returns their findings in the order the caller
// asked for them. Each sub-agent runs with the core tool set only: it
// cannot call parallel_analyze itself, and has no workspace.
type ParallelAnalyzeTool struct{}

func (t ParallelAnalyzeTool) Name() string { return "parallel_analyze" }

func (t ParallelAnalyzeTool) Description() string {
	return "Delegate independent analysis tasks to concurrent sub-agents, each with the core read-only tools. Use for large or multi-area changesets; results come back in the order requested."
}

func (t ParallelAnalyzeTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tasks": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"focus": map[string]any{
							"type":        "string",
							"description": "What this sub-agent should investigate",
						},
						"paths": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Files to scope the sub-agent's attention to",
						},
					},
					"required":             []string{"focus"},
					"additionalProperties": false,
				},
				"minItems": float64(1),
			},
			"concurrency": map[string]any{
				"type":        "integer",
				"description": "Max sub-agents to run at once. Defaults to a small server-side bound; larger values are clamped to a server-side maximum.",
			},
		},
		"required":             []string{"tasks"},
		"additionalProperties": false,
	}
}

func (t ParallelAnalyzeTool) Execute(ctx context.Context, toolCtx *tools.ToolContext, input map[string]any) (tools.ToolResult, error) {
	if err := toolCtx.CheckDelegation(); err != nil {
		return tools.NewErrorResult(err), nil
	}
	if toolCtx.Delegate == nil {
		return tools.NewErrorResultf("parallel_analyze: no delegate configured for this run"), nil
	}

	rawTasks, ok := input["tasks"].([]any)
	if !ok || len(rawTasks) == 0 {
		return tools.NewErrorResultf("tasks is required and must be non-empty"), nil
	}

	tasks := make([]tools.AnalysisTask, 0, len(rawTasks))
	for _, raw := range rawTasks {
		m, ok := raw.(map[string]any)
		if !ok {
			return tools.NewErrorResultf("each task must be an object"), nil
		}
		focus, _ := m["focus"].(string)
		if focus == "" {
			return tools.NewErrorResultf("each task requires a focus"), nil
		}
		var paths []string
		if rawPaths, ok := m["paths"].([]any); ok {
			for _, p := range rawPaths {
				if s, ok := p.(string); ok {
					paths = append(paths, s)
				}
			}
		}
		tasks = append(tasks, tools.AnalysisTask{Focus: focus, Paths: paths})
	}

	concurrency := 0
	if n, ok := input["concurrency"].(float64); ok {
		concurrency = int(n)
	}

	started := time.Now()
	results, err := toolCtx.Delegate.Delegate(ctx, tasks, concurrency)
	if err != nil {
		return tools.NewErrorResultf("parallel_analyze failed: %v", err), nil
	}
	elapsed := time.Since(started)

	var b strings.Builder
	successful, failed := 0, 0
	for i, r := range results {
		fmt.Fprintf(&b, "## Task %d: %s\n\n", i+1, r.Focus)
		if r.Err != nil {
			failed++
			fmt.Fprintf(&b, "(failed: %v)\n\n", r.Err)
			continue
		}
		successful++
		fmt.Fprintf(&b, "%s\n\n", r.Summary)
	}
	result := tools.NewToolResult(strings.TrimRight(b.String(), "\n"))
	result = result.WithMetadata("successful", successful)
	result = result.WithMetadata("failed", failed)
	result = result.WithMetadata("execution_time_ms", elapsed.Milliseconds())
	return result, nil
}

// RegisterParallelTools registers the parallel_analyze tool with the registry.
func RegisterParallelTools(registry *tools.Registry) {
	registry.MustRegister(ParallelAnalyzeTool{})
}
