package agentcore

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessagesIncludeKindSpecificDetail(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "tool invocation",
			err:  NewToolInvocationError("git_diff", string(ToolIO), "failed to read diff", nil),
			want: `tool "git_diff": io: failed to read diff`,
		},
		{
			name: "repository",
			err:  NewRepositoryError(RepositoryInvalidRef, "bad ref", nil),
			want: "repository (invalid_ref): bad ref",
		},
		{
			name: "model",
			err:  NewModelError(ModelRateLimited, "too many requests", nil),
			want: "model error (rate_limited): too many requests",
		},
		{
			name: "turn budget exceeded",
			err:  NewTurnBudgetExceeded(10),
			want: "turn_budget_exceeded: exceeded turn budget of 10",
		},
		{
			name: "cancelled",
			err:  NewCancelled(nil),
			want: "cancelled: run cancelled",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewModelError(ModelTransport, "transport failed", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if errors.Unwrap(err) != cause {
		t.Error("errors.Unwrap(err) did not return the wrapped cause")
	}
}

func TestErrorIsMatchesByKindOnly(t *testing.T) {
	a := NewModelError(ModelTransport, "first failure", nil)
	b := NewModelError(ModelRateLimited, "second failure, different reason", nil)
	if !errors.Is(a, b) {
		t.Error("errors.Is should match two *Error values sharing a Kind, regardless of other fields")
	}

	c := NewRepositoryError(RepositoryIO, "io failure", nil)
	if errors.Is(a, c) {
		t.Error("errors.Is should not match *Error values with different Kinds")
	}
}

func TestErrorIsDoesNotMatchNonErrorTargets(t *testing.T) {
	err := NewConfigurationError("bad config", nil)
	if err.Is(fmt.Errorf("plain error")) {
		t.Error("Is() matched a non-*Error target")
	}
}
