package builtin

import (
	"context"
	"fmt"
	"strings"

	"github.com/gitiris/agentcore/pkg/tools"
)

// WorkspaceTool gives the top-level agent a small scratch area — notes
// and a task list — to track its own progress across turns. It is not
// available to parallel_analyze sub-agents.
type WorkspaceTool struct{}

func (t WorkspaceTool) Name() string { return "workspace" }

func (t WorkspaceTool) Description() string {
	return "Record a note, add or update a task, list the current scratch state, or clear it. Actions: add_note, add_task, update_task, list, clear."
}

func (t WorkspaceTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type": "string",
				"enum": []string{"add_note", "add_task", "update_task", "list", "clear"},
			},
			"text": map[string]any{
				"type":        "string",
				"description": "Note text or task description, for add_note/add_task",
			},
			"tags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Tags to attach, for add_note",
			},
			"priority": map[string]any{
				"type":        "string",
				"enum":        []string{"low", "medium", "high"},
				"description": "Task priority, for add_task. Defaults to medium.",
			},
			"task_id": map[string]any{
				"type":        "integer",
				"description": "Id of the task to update, for update_task",
			},
			"status": map[string]any{
				"type":        "string",
				"enum":        []string{"open", "in_progress", "completed"},
				"description": "New status, for update_task",
			},
			"note": map[string]any{
				"type":        "string",
				"description": "Note text attached to a task, for add_task/update_task",
			},
		},
		"required":             []string{"action"},
		"additionalProperties": false,
	}
}

func (t WorkspaceTool) Execute(ctx context.Context, toolCtx *tools.ToolContext, input map[string]any) (tools.ToolResult, error) {
	if err := toolCtx.CheckWorkspace(); err != nil {
		return tools.NewErrorResult(err), nil
	}

	action, _ := input["action"].(string)
	ws := toolCtx.Workspace

	switch action {
	case "add_note":
		text, ok := input["text"].(string)
		if !ok || text == "" {
			return tools.NewErrorResultf("text is required for add_note"), nil
		}
		tags := stringSlice(input["tags"])
		id := ws.AddNote(text, tags)
		return tools.NewToolResult(fmt.Sprintf("Note %d recorded", id)), nil

	case "add_task":
		text, ok := input["text"].(string)
		if !ok || text == "" {
			return tools.NewErrorResultf("text is required for add_task"), nil
		}
		priority := tools.PriorityMedium
		if p, ok := input["priority"].(string); ok && p != "" {
			priority = tools.TaskPriority(p)
		}
		note, _ := input["note"].(string)
		id := ws.AddTask(text, priority, note)
		return tools.NewToolResult(fmt.Sprintf("Task %d added", id)), nil

	case "update_task":
		id, ok := input["task_id"].(float64)
		if !ok {
			return tools.NewErrorResultf("task_id is required for update_task"), nil
		}
		status, _ := input["status"].(string)
		note, _ := input["note"].(string)
		if status == "" && note == "" {
			return tools.NewErrorResultf("status or note is required for update_task"), nil
		}
		if !ws.UpdateTask(int(id), tools.TaskStatus(status), note) {
			return tools.NewErrorResultf("no task with id %d", int(id)), nil
		}
		return tools.NewToolResult(fmt.Sprintf("Task %d updated", int(id))), nil

	case "list":
		return tools.NewToolResult(renderWorkspace(ws)), nil

	case "clear":
		ws.Clear()
		return tools.NewToolResult("Workspace cleared"), nil

	default:
		return tools.NewErrorResultf("unknown action: %s", action), nil
	}
}

func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func renderWorkspace(ws *tools.Workspace) string {
	var b strings.Builder
	notes := ws.Notes()
	if len(notes) > 0 {
		b.WriteString("Notes:\n")
		for _, n := range notes {
			if len(n.Tags) > 0 {
				fmt.Fprintf(&b, "  %d. %s [%s]\n", n.ID, n.Text, strings.Join(n.Tags, ", "))
			} else {
				fmt.Fprintf(&b, "  %d. %s\n", n.ID, n.Text)
			}
		}
	}
	tasks := ws.Tasks()
	if len(tasks) > 0 {
		b.WriteString("Tasks:\n")
		for _, task := range tasks {
			fmt.Fprintf(&b, "  %d. [%s/%s] %s", task.ID, task.Status, task.Priority, task.Description)
			if task.Note != "" {
				fmt.Fprintf(&b, " (%s)", task.Note)
			}
			b.WriteString("\n")
		}
	}
	if len(notes) == 0 && len(tasks) == 0 {
		return "Workspace is empty"
	}
	return strings.TrimRight(b.String(), "\n")
}

// RegisterWorkspaceTools registers the workspace tool with the registry.
func RegisterWorkspaceTools(registry *tools.Registry) {
	registry.MustRegister(WorkspaceTool{})
}
