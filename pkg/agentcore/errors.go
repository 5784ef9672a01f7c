// Package agentcore defines the sum-typed error kinds shared across the
// capability loader, tool registry, and agent runtime, so callers can
// switch on Kind instead of matching error strings.
package agentcore

import "fmt"

// Kind identifies which family of failure an Error represents.
type Kind string

const (
	KindConfiguration     Kind = "configuration_error"
	KindRepository        Kind = "repository_error"
	KindToolInvocation    Kind = "tool_invocation_error"
	KindModel             Kind = "model_error"
	KindSchemaRecovery    Kind = "schema_recovery_failed"
	KindTurnBudgetExceeded Kind = "turn_budget_exceeded"
	KindCancelled          Kind = "cancelled"
)

// ToolErrorKind narrows KindToolInvocation into the specific failure mode
// a single tool call encountered (§7).
type ToolErrorKind string

const (
	ToolInvalidArguments ToolErrorKind = "invalid_arguments"
	ToolIO               ToolErrorKind = "io"
	ToolNotFound         ToolErrorKind = "not_found"
	ToolOversize         ToolErrorKind = "oversize"
	ToolDenied           ToolErrorKind = "denied"
	ToolInternal         ToolErrorKind = "internal"
)

// RepositoryErrorKind narrows KindRepository into the specific access
// failure the repository facade reported (§7, §4.1).
type RepositoryErrorKind string

const (
	RepositoryNotARepository RepositoryErrorKind = "not_a_repository"
	RepositoryInvalidRef     RepositoryErrorKind = "invalid_ref"
	RepositoryIO             RepositoryErrorKind = "io"
)

// ModelErrorReason narrows KindModel into the specific failure mode the
// model call encountered.
type ModelErrorReason string

const (
	ModelTransport      ModelErrorReason = "transport"
	ModelRateLimited    ModelErrorReason = "rate_limited"
	ModelInvalidResponse ModelErrorReason = "invalid_response"
	ModelRefusal         ModelErrorReason = "refusal"
)

// Error is the sum-typed failure surfaced by the agent core. Each Kind
// carries the fields relevant to it; the rest are zero.
type Error struct {
	Kind Kind

	// ToolName and ToolKind are set for KindToolInvocation.
	ToolName string
	ToolKind string

	// RepositoryReason is set for KindRepository.
	RepositoryReason RepositoryErrorKind

	// ModelReason is set for KindModel.
	ModelReason ModelErrorReason

	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindToolInvocation:
		return fmt.Sprintf("tool %q: %s: %s", e.ToolName, e.ToolKind, e.Message)
	case KindRepository:
		return fmt.Sprintf("repository (%s): %s", e.RepositoryReason, e.Message)
	case KindModel:
		return fmt.Sprintf("model error (%s): %s", e.ModelReason, e.Message)
	default:
		if e.Message != "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.Message)
		}
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewConfigurationError reports a misconfigured provider, repository, or
// capability descriptor discovered before any model call is made.
func NewConfigurationError(message string, err error) *Error {
	return &Error{Kind: KindConfiguration, Message: message, Err: err}
}

// NewRepositoryError reports a failure from the repository facade itself
// (not a tool wrapping one) — e.g. discovering at startup that WorkDir
// isn't a git repository.
func NewRepositoryError(reason RepositoryErrorKind, message string, err error) *Error {
	return &Error{Kind: KindRepository, RepositoryReason: reason, Message: message, Err: err}
}

// NewToolInvocationError reports a tool call that could not be carried out.
func NewToolInvocationError(toolName, toolKind, message string, err error) *Error {
	return &Error{Kind: KindToolInvocation, ToolName: toolName, ToolKind: toolKind, Message: message, Err: err}
}

// NewModelError reports a failure from the model provider itself.
func NewModelError(reason ModelErrorReason, message string, err error) *Error {
	return &Error{Kind: KindModel, ModelReason: reason, Message: message, Err: err}
}

// NewSchemaRecoveryFailed reports that every step of the structured-output
// recovery chain (strict parse, bracket extraction, repair prompt) failed
// and the caller is receiving a PlainText fallback.
func NewSchemaRecoveryFailed(message string, err error) *Error {
	return &Error{Kind: KindSchemaRecovery, Message: message, Err: err}
}

// NewTurnBudgetExceeded reports that an agent run used its full turn
// budget without reaching a final answer.
func NewTurnBudgetExceeded(budget int) *Error {
	return &Error{Kind: KindTurnBudgetExceeded, Message: fmt.Sprintf("exceeded turn budget of %d", budget)}
}

// NewCancelled reports that the run's context was cancelled mid-flight.
func NewCancelled(err error) *Error {
	return &Error{Kind: KindCancelled, Message: "run cancelled", Err: err}
}

// Is reports a match for any *Error target with the same Kind, e.g.
// errors.Is(err, &agentcore.Error{Kind: agentcore.KindModel}) by way of
// errors.Is's tree-walk — callers typically switch on Kind directly
// instead, but this lets wrapped errors still match.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
