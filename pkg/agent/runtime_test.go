package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gitiris/agentcore/pkg/agentcore"
	"github.com/gitiris/agentcore/pkg/capability"
	"github.com/gitiris/agentcore/pkg/llm"
	"github.com/gitiris/agentcore/pkg/tools"
)

// fakeProvider scripts a sequence of responses, one per call, for driving
// the runtime loop deterministically.
type fakeProvider struct {
	mu        sync.Mutex
	responses []llm.AgentResponse
	errs      []error
	calls     int
}

func (f *fakeProvider) Call(ctx context.Context, req llm.AgentRequest) (llm.AgentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return llm.AgentResponse{}, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func (f *fakeProvider) Name() string { return "fake" }

func textResponse(text string) llm.AgentResponse {
	return llm.AgentResponse{
		Role:       llm.RoleAssistant,
		StopReason: llm.StopReasonEndTurn,
		Content:    []llm.ContentBlock{{Type: llm.ContentTypeText, Text: text}},
	}
}

func toolUseResponse(id, name string, input map[string]any) llm.AgentResponse {
	return llm.AgentResponse{
		Role:       llm.RoleAssistant,
		StopReason: llm.StopReasonToolUse,
		Content:    []llm.ContentBlock{{Type: llm.ContentTypeToolUse, ID: id, Name: name, Input: input}},
	}
}

// fakeTool is a minimal Tool implementation for exercising dispatch.
type fakeTool struct {
	name    string
	output  string
	err     error
	calls   int
	mu      sync.Mutex
}

func (t *fakeTool) Name() string               { return t.name }
func (t *fakeTool) Description() string        { return "fake tool" }
func (t *fakeTool) InputSchema() map[string]any { return map[string]any{"type": "object"} }
func (t *fakeTool) Execute(ctx context.Context, toolCtx *tools.ToolContext, input map[string]any) (tools.ToolResult, error) {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	if t.err != nil {
		return tools.ToolResult{}, t.err
	}
	return tools.NewToolResult(t.output), nil
}

func newTestRuntime(t *testing.T, provider llm.LLMProvider, registry *tools.Registry) *Runtime {
	t.Helper()
	caps := capability.NewRegistry()
	if err := caps.Add(capability.Capability{
		Name:       "commit",
		TaskPrompt: "Generate a commit message.",
		OutputType: "generated_message",
	}); err != nil {
		t.Fatalf("caps.Add() error = %v", err)
	}
	if registry == nil {
		registry = tools.NewRegistry()
	}
	rt := NewRuntime(provider, caps, registry)
	return rt
}

func TestRunReturnsParsedResponseOnFinalAnswer(t *testing.T) {
	provider := &fakeProvider{responses: []llm.AgentResponse{
		textResponse(`{"emoji":"✨","title":"Add feature","message":"Implements the thing."}`),
	}}
	rt := newTestRuntime(t, provider, nil)

	result, err := rt.Run(context.Background(), RunRequest{
		CapabilityName: "commit",
		WorkDir:        t.TempDir(),
		TurnBudget:     5,
		ToolContext:    tools.NewToolContext(t.TempDir(), nil).WithPermissions(tools.DefaultPermissions()),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.FinalState != StateDone {
		t.Fatalf("FinalState = %v, want %v", result.FinalState, StateDone)
	}
	if result.Response.Title != "Add feature" {
		t.Errorf("Title = %q, want %q", result.Response.Title, "Add feature")
	}
	if result.Usage.TotalIterations != 1 {
		t.Errorf("TotalIterations = %d, want 1", result.Usage.TotalIterations)
	}
}

func TestRunDispatchesToolCallsThenReturnsFinalAnswer(t *testing.T) {
	tool := &fakeTool{name: "read_file", output: "file body"}
	registry := tools.NewRegistry()
	registry.MustRegister(tool)

	provider := &fakeProvider{responses: []llm.AgentResponse{
		toolUseResponse("call_1", "read_file", map[string]any{"path": "main.go"}),
		textResponse(`{"title":"Update main","message":"Edits main.go."}`),
	}}
	rt := newTestRuntime(t, provider, registry)

	result, err := rt.Run(context.Background(), RunRequest{
		CapabilityName: "commit",
		WorkDir:        t.TempDir(),
		TurnBudget:     5,
		ToolContext:    tools.NewToolContext(t.TempDir(), nil).WithPermissions(tools.DefaultPermissions()),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if tool.calls != 1 {
		t.Fatalf("tool.calls = %d, want 1", tool.calls)
	}
	if result.Response.Title != "Update main" {
		t.Errorf("Title = %q, want %q", result.Response.Title, "Update main")
	}
	if result.Usage.TotalIterations != 2 {
		t.Errorf("TotalIterations = %d, want 2", result.Usage.TotalIterations)
	}
}

func TestRunPreservesToolCallOrderInResultMessage(t *testing.T) {
	registry := tools.NewRegistry()
	registry.MustRegister(&fakeTool{name: "tool_a", output: "a-result"})
	registry.MustRegister(&fakeTool{name: "tool_b", output: "b-result"})

	provider := &fakeProvider{responses: []llm.AgentResponse{
		{
			Role:       llm.RoleAssistant,
			StopReason: llm.StopReasonToolUse,
			Content: []llm.ContentBlock{
				{Type: llm.ContentTypeToolUse, ID: "1", Name: "tool_a", Input: map[string]any{}},
				{Type: llm.ContentTypeToolUse, ID: "2", Name: "tool_b", Input: map[string]any{}},
			},
		},
		textResponse(`{"title":"done","message":"done"}`),
	}}
	rt := newTestRuntime(t, provider, registry)

	result, err := rt.Run(context.Background(), RunRequest{
		CapabilityName: "commit",
		WorkDir:        t.TempDir(),
		TurnBudget:     5,
		ToolContext:    tools.NewToolContext(t.TempDir(), nil).WithPermissions(tools.DefaultPermissions()),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var toolResultMsg llm.Message
	for _, msg := range result.Messages {
		for _, block := range msg.Content {
			if block.Type == llm.ContentTypeToolResult {
				toolResultMsg = msg
			}
		}
	}
	if len(toolResultMsg.Content) != 2 {
		t.Fatalf("expected 2 tool results, got %d", len(toolResultMsg.Content))
	}
	if toolResultMsg.Content[0].ToolUseID != "1" || toolResultMsg.Content[1].ToolUseID != "2" {
		t.Errorf("tool results out of order: %+v", toolResultMsg.Content)
	}
}

func TestRunToolErrorDoesNotAbortRun(t *testing.T) {
	registry := tools.NewRegistry()
	registry.MustRegister(&fakeTool{name: "read_file", err: errors.New("boom")})

	provider := &fakeProvider{responses: []llm.AgentResponse{
		toolUseResponse("call_1", "read_file", map[string]any{"path": "x"}),
		textResponse(`{"title":"recovered","message":"handled the tool failure"}`),
	}}
	rt := newTestRuntime(t, provider, registry)

	result, err := rt.Run(context.Background(), RunRequest{
		CapabilityName: "commit",
		WorkDir:        t.TempDir(),
		TurnBudget:     5,
		ToolContext:    tools.NewToolContext(t.TempDir(), nil).WithPermissions(tools.DefaultPermissions()),
	})
	if err != nil {
		t.Fatalf("Run() error = %v, want the run to recover from the tool error", err)
	}
	if result.Response.Title != "recovered" {
		t.Errorf("Title = %q, want %q", result.Response.Title, "recovered")
	}
}

func TestRunFailsWhenTurnBudgetExceeded(t *testing.T) {
	provider := &fakeProvider{responses: []llm.AgentResponse{
		toolUseResponse("call_1", "read_file", map[string]any{}),
	}}
	registry := tools.NewRegistry()
	registry.MustRegister(&fakeTool{name: "read_file", output: "ok"})
	rt := newTestRuntime(t, provider, registry)

	_, err := rt.Run(context.Background(), RunRequest{
		CapabilityName: "commit",
		WorkDir:        t.TempDir(),
		TurnBudget:     2,
		ToolContext:    tools.NewToolContext(t.TempDir(), nil).WithPermissions(tools.DefaultPermissions()),
	})
	if err == nil {
		t.Fatal("expected turn budget exceeded error, got nil")
	}
	var coreErr *agentcore.Error
	if !errors.As(err, &coreErr) || coreErr.Kind != agentcore.KindTurnBudgetExceeded {
		t.Errorf("err = %v, want KindTurnBudgetExceeded", err)
	}
}

func TestRunRejectsMissingToolContext(t *testing.T) {
	provider := &fakeProvider{responses: []llm.AgentResponse{textResponse(`{"title":"x","message":"y"}`)}}
	rt := newTestRuntime(t, provider, nil)

	_, err := rt.Run(context.Background(), RunRequest{
		CapabilityName: "commit",
		WorkDir:        t.TempDir(),
		TurnBudget:     5,
	})
	if err == nil {
		t.Fatal("expected error for missing ToolContext, got nil")
	}
}

func TestRunCancellationStopsLoop(t *testing.T) {
	provider := &fakeProvider{responses: []llm.AgentResponse{
		toolUseResponse("call_1", "read_file", map[string]any{}),
	}}
	registry := tools.NewRegistry()
	registry.MustRegister(&fakeTool{name: "read_file", output: "ok"})
	rt := newTestRuntime(t, provider, registry)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rt.Run(ctx, RunRequest{
		CapabilityName: "commit",
		WorkDir:        t.TempDir(),
		TurnBudget:     5,
		ToolContext:    tools.NewToolContext(t.TempDir(), nil).WithPermissions(tools.DefaultPermissions()),
	})
	if err == nil {
		t.Fatal("expected cancellation error, got nil")
	}
	var coreErr *agentcore.Error
	if !errors.As(err, &coreErr) || coreErr.Kind != agentcore.KindCancelled {
		t.Errorf("err = %v, want KindCancelled", err)
	}
}
