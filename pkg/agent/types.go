// Package agent implements the agent runtime: preamble assembly, the
// multi-turn tool-calling loop against a completion model, structured
// output parsing and recovery, and the sub-agent delegation model behind
// parallel_analyze.
package agent

import (
	"time"

	"github.com/gitiris/agentcore/pkg/llm"
	"github.com/gitiris/agentcore/pkg/tools"
)

// State names one node of the per-invocation state machine.
type State string

const (
	StateInitializing         State = "initializing"
	StatePrompting            State = "prompting"
	StateWaitingForModel      State = "waiting_for_model"
	StateDispatchingToolCalls State = "dispatching_tool_calls"
	StateFinalAnswer          State = "final_answer"
	StateParsing              State = "parsing"
	StateDone                 State = "done"
	StateFailed               State = "failed"
)

// String satisfies logging.StepState so a State value can be passed to
// Logger.Step directly.
func (s State) String() string { return string(s) }

// OutputKind identifies which StructuredResponse variant a capability's
// output_type maps to.
type OutputKind string

const (
	OutputGeneratedMessage     OutputKind = "generated_message"
	OutputMarkdownPullRequest  OutputKind = "markdown_pull_request"
	OutputMarkdownReview       OutputKind = "markdown_review"
	OutputMarkdownChangelog    OutputKind = "markdown_changelog"
	OutputMarkdownReleaseNotes OutputKind = "markdown_release_notes"
	OutputPlainText            OutputKind = "plain_text"
)

// StructuredResponse is the tagged union of final agent outputs. Exactly
// one of the variant-specific field groups is populated, matching Kind.
type StructuredResponse struct {
	Kind OutputKind

	// GeneratedMessage fields.
	Emoji   string
	Title   string
	Message string

	// Markdown* fields (pull request / review / changelog / release notes)
	// and the PlainText fallback all carry their text here.
	Content string
}

// maxTitleLen is the hard cap on GeneratedMessage.Title; see §7.
const maxTitleLen = 72

// Diagnostics carries non-fatal, caller-visible detail about how the final
// answer was produced.
type Diagnostics struct {
	// SchemaRecoveryFailed is set when every step of the structured-output
	// recovery chain failed and Response is a PlainText fallback.
	SchemaRecoveryFailed bool

	// TitleTruncated is set when a GeneratedMessage title was cut to
	// maxTitleLen characters.
	TitleTruncated bool

	// RepairAttempted records whether the one-shot repair prompt was used.
	RepairAttempted bool

	// NoChanges is set when the runtime short-circuited before contacting
	// the model because the repository had nothing to describe (§7).
	NoChanges bool
}

// RunRequest contains everything needed to run one capability invocation.
type RunRequest struct {
	// CapabilityName selects the task_prompt/output_type pair from the
	// capability registry.
	CapabilityName string

	// OutputType overrides the capability's declared output_type, when the
	// caller has already resolved it; empty means "use the capability's".
	OutputType string

	// TaskPrompt overrides the capability's task_prompt when the caller has
	// already resolved it (used by sub-agents, which are not driven by a
	// named capability but by a delegated task string).
	TaskPrompt string

	// StylePreset and Instructions are appended verbatim to the preamble,
	// labeled as such.
	StylePreset  string
	Instructions string

	// WorkDir is the repository working directory.
	WorkDir string

	// TurnBudget bounds the number of model calls this invocation may make.
	TurnBudget int

	// RequiresChanges marks capabilities (commit, review, pr) that operate
	// on a diff: when the repository has no changes, the runtime
	// short-circuits before any model call (§7).
	RequiresChanges bool

	// MaxMessages bounds conversation history length before truncation.
	MaxMessages int

	// Compact configures conversation summarization for runs expected to
	// use many turns (e.g. review on a large changeset). Zero value
	// (Enabled: false) disables it; truncateForBudget alone still
	// applies regardless.
	Compact CompactConfig

	// ToolContext supplies the tool execution environment: working
	// directory, repository facade, permissions, workspace, and the
	// parallel_analyze delegate. Required; the caller (the CLI factory
	// for a top-level run, SubAgentDelegator for a sub-agent) builds it
	// since only it knows the repository and permission tier to use.
	ToolContext *tools.ToolContext

	Callbacks Callbacks
}

// Callbacks provides hooks for observing the run; all are optional.
type Callbacks struct {
	OnStateChange func(State)
	OnMessage     func(llm.Message)
	OnToolCall    func(name string, input map[string]any)
	OnToolResult  func(name string, result tools.ToolResult)
}

// Result is the outcome of one Run call.
type Result struct {
	Response    StructuredResponse
	Diagnostics Diagnostics

	Messages []llm.Message
	Usage    Usage

	FinalState State
}

// Usage tracks resource consumption for a single invocation.
type Usage struct {
	TotalIterations   int
	TotalInputTokens  int
	TotalOutputTokens int
	TotalDuration     time.Duration
}

// GetFinalText returns the last assistant message's text, if any.
func (r Result) GetFinalText() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == llm.RoleAssistant {
			return r.Messages[i].GetText()
		}
	}
	return ""
}
