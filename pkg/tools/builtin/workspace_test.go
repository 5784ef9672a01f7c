package builtin

import (
	"context"
	"testing"

	"github.com/gitiris/agentcore/pkg/repository"
	"github.com/gitiris/agentcore/pkg/tools"
)

func TestWorkspaceTool_AddNoteAndList(t *testing.T) {
	dir := initTestRepo(t)
	toolCtx := newTestContext(t, dir)

	if _, err := WorkspaceTool{}.Execute(context.Background(), toolCtx, map[string]any{
		"action": "add_note", "text": "found a suspicious retry loop",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := WorkspaceTool{}.Execute(context.Background(), toolCtx, map[string]any{"action": "list"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", result.Content)
	}
}

func TestWorkspaceTool_AddAndUpdateTask(t *testing.T) {
	dir := initTestRepo(t)
	toolCtx := newTestContext(t, dir)

	if _, err := WorkspaceTool{}.Execute(context.Background(), toolCtx, map[string]any{
		"action": "add_task", "text": "review pkg/auth", "priority": "high",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := WorkspaceTool{}.Execute(context.Background(), toolCtx, map[string]any{
		"action": "update_task", "task_id": float64(1), "status": "completed",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", result.Content)
	}
}

func TestWorkspaceTool_UpdateUnknownTaskErrors(t *testing.T) {
	dir := initTestRepo(t)
	toolCtx := newTestContext(t, dir)

	result, err := WorkspaceTool{}.Execute(context.Background(), toolCtx, map[string]any{
		"action": "update_task", "task_id": float64(99), "status": "in_progress",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error updating a nonexistent task")
	}
}

func TestWorkspaceTool_Clear(t *testing.T) {
	dir := initTestRepo(t)
	toolCtx := newTestContext(t, dir)

	if _, err := WorkspaceTool{}.Execute(context.Background(), toolCtx, map[string]any{
		"action": "add_note", "text": "temporary observation",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := WorkspaceTool{}.Execute(context.Background(), toolCtx, map[string]any{"action": "clear"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := WorkspaceTool{}.Execute(context.Background(), toolCtx, map[string]any{"action": "list"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "Workspace is empty" {
		t.Fatalf("expected empty workspace after clear, got %q", result.Content)
	}
}

func TestWorkspaceTool_DeniedForSubAgent(t *testing.T) {
	dir := initTestRepo(t)
	toolCtx := tools.NewToolContext(dir, repository.New(dir)).WithPermissions(tools.SubAgentPermissions())

	result, err := WorkspaceTool{}.Execute(context.Background(), toolCtx, map[string]any{"action": "list"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected workspace tool to be denied for a sub-agent context")
	}
}
