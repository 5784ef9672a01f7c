package tools

import (
	"context"
	"testing"
)

type countTool struct{}

func (countTool) Name() string        { return "count_things" }
func (countTool) Description() string { return "counts things" }
func (countTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"count": map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"count"},
	}
}
func (countTool) Execute(ctx context.Context, toolCtx *ToolContext, input map[string]any) (ToolResult, error) {
	return NewToolResult("ok"), nil
}

func TestValidateInput_Accepts(t *testing.T) {
	if err := ValidateInput(countTool{}, map[string]any{"count": float64(3)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInput_RejectsMissingRequired(t *testing.T) {
	if err := ValidateInput(countTool{}, map[string]any{}); err == nil {
		t.Fatal("expected error for missing required field")
	}
}

func TestValidateInput_RejectsOutOfRange(t *testing.T) {
	if err := ValidateInput(countTool{}, map[string]any{"count": float64(-1)}); err == nil {
		t.Fatal("expected error for negative count")
	}
}
