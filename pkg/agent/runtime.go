package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gitiris/agentcore/pkg/agentcore"
	"github.com/gitiris/agentcore/pkg/capability"
	"github.com/gitiris/agentcore/pkg/llm"
	"github.com/gitiris/agentcore/pkg/logging"
	"github.com/gitiris/agentcore/pkg/repository"
	"github.com/gitiris/agentcore/pkg/tools"
)

const (
	defaultMainTurnBudget = 10
	defaultSubTurnBudget  = 4
	defaultMaxMessages    = 50
)

// Runtime drives one capability invocation through the state machine in
// §4.6: Initializing -> Prompting -> WaitingForModel -> (DispatchingToolCalls
// -> WaitingForModel)* -> FinalAnswer -> Parsing -> Done, with Failed
// reachable from any non-terminal state.
type Runtime struct {
	// Provider is the main completion model.
	Provider llm.LLMProvider

	// Capabilities resolves a capability name to its task_prompt/output_type.
	Capabilities *capability.Registry

	// Registry is the main agent's tool set (core + workspace + parallel_analyze).
	Registry *tools.Registry

	// MainTurnBudget bounds the main agent's loop iterations.
	MainTurnBudget int

	// MaxMessages bounds conversation history before truncation.
	MaxMessages int

	// Delegate implements parallel_analyze sub-agent dispatch. Left nil on
	// a Runtime built for a sub-agent (SubAgentDelegator.runOne), since sub-agents never
	// see parallel_analyze in their registry.
	Delegate tools.Delegator

	Logger *logging.Logger
}

// NewRuntime builds a Runtime for the main agent.
func NewRuntime(provider llm.LLMProvider, capabilities *capability.Registry, registry *tools.Registry) *Runtime {
	return &Runtime{
		Provider:       provider,
		Capabilities:   capabilities,
		Registry:       registry,
		MainTurnBudget: defaultMainTurnBudget,
		MaxMessages:    defaultMaxMessages,
		Logger:         logging.Default(),
	}
}

// Run executes one capability invocation end to end.
func (rt *Runtime) Run(ctx context.Context, req RunRequest) (Result, error) {
	logger := rt.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.StartInvocation(req.CapabilityName, "work_dir", req.WorkDir)
	var finalErr error
	defer func() { logger.EndInvocation(finalErr) }()

	result, err := rt.run(ctx, logger, req)
	finalErr = err
	return result, err
}

func (rt *Runtime) run(ctx context.Context, logger *logging.Logger, req RunRequest) (Result, error) {
	emitState := func(s State) {
		if req.Callbacks.OnStateChange != nil {
			req.Callbacks.OnStateChange(s)
		}
	}

	// --- Initializing ---
	endStep := logger.Step(StateInitializing)
	emitState(StateInitializing)

	taskPrompt, outputType, err := rt.resolveCapability(req)
	if err != nil {
		endStep(err)
		emitState(StateFailed)
		return Result{FinalState: StateFailed}, agentcore.NewConfigurationError("resolve capability", err)
	}

	toolCtx := req.ToolContext
	if toolCtx == nil {
		return Result{}, agentcore.NewConfigurationError("run request has no ToolContext", nil)
	}
	if toolCtx.Delegate == nil && rt.Delegate != nil {
		toolCtx = toolCtx.WithDelegate(rt.Delegate)
	}

	if req.RequiresChanges {
		if err := checkForChanges(ctx, toolCtx); err != nil {
			endStep(nil)
			emitState(StateDone)
			return Result{
				Response:    StructuredResponse{Kind: OutputPlainText, Content: "No changes to describe."},
				Diagnostics: Diagnostics{NoChanges: true},
				FinalState:  StateDone,
			}, nil
		}
	}

	turnBudget := req.TurnBudget
	if turnBudget <= 0 {
		turnBudget = rt.MainTurnBudget
	}
	maxMessages := req.MaxMessages
	if maxMessages <= 0 {
		maxMessages = rt.MaxMessages
	}

	preamble := buildPreamble(ctx, taskPrompt, req.StylePreset, req.Instructions, toolCtx.Repo)

	toolDefs, err := toolDefinitions(rt.Registry, toolCtx)
	if err != nil {
		endStep(err)
		emitState(StateFailed)
		return Result{FinalState: StateFailed}, agentcore.NewConfigurationError("build tool definitions", err)
	}

	state := newConversationState([]llm.Message{
		llm.NewTextMessage(llm.RoleUser, "Begin."),
	})
	endStep(nil)

	repairUsed := false

	var compactor *Compactor
	if req.Compact.Enabled {
		compactor = &Compactor{Provider: rt.Provider, Config: req.Compact, Logger: logger}
	}

	for state.Iterations < turnBudget {
		select {
		case <-ctx.Done():
			emitState(StateFailed)
			return rt.partialResult(state, StateFailed), agentcore.NewCancelled(ctx.Err())
		default:
		}
		state.Iterations++

		// --- Prompting ---
		endStep = logger.Step(StatePrompting, "iteration", state.Iterations)
		emitState(StatePrompting)
		if compactor != nil && compactor.ShouldCompact(state.Messages) {
			compacted, cErr := compactor.Compact(ctx, state.Messages)
			if cErr == nil {
				state.Messages = compacted
			}
		}
		messages := truncateForBudget(state.Messages, maxMessages)
		endStep(nil)

		// --- WaitingForModel ---
		endStep = logger.Step(StateWaitingForModel, "iteration", state.Iterations, "messages", len(messages))
		emitState(StateWaitingForModel)
		resp, err := rt.Provider.Call(ctx, llm.AgentRequest{
			System:   preamble,
			Messages: messages,
			Tools:    toolDefs,
		})
		if err != nil {
			endStep(err)
			emitState(StateFailed)
			return rt.partialResult(state, StateFailed), agentcore.NewModelError(agentcore.ModelTransport, "completion call failed", err)
		}
		state.updateUsage(resp.Usage)
		state.LastResponse = resp
		assistantMsg := resp.ToMessage()
		state.addMessage(assistantMsg)
		if req.Callbacks.OnMessage != nil {
			req.Callbacks.OnMessage(assistantMsg)
		}
		endStep(nil)

		if resp.StopReason == llm.StopReasonMaxTokens {
			emitState(StateFailed)
			return rt.partialResult(state, StateFailed), agentcore.NewModelError(agentcore.ModelInvalidResponse, "response truncated at max_tokens", nil)
		}

		if !resp.HasToolUse() {
			// --- FinalAnswer ---
			emitState(StateFinalAnswer)
			text := resp.GetText()

			// --- Parsing ---
			endStep = logger.Step(StateParsing, "iteration", state.Iterations)
			emitState(StateParsing)
			response, diag, parseErr := attemptParse(OutputKind(outputType), text)
			if parseErr != nil && state.Iterations < turnBudget && !repairUsed {
				repairUsed = true
				repaired, repairErr := rt.attemptRepair(ctx, logger, toolCtx, preamble, toolDefs, state, maxMessages, OutputKind(outputType), parseErr)
				if repairErr == nil {
					response, diag, parseErr = attemptParse(OutputKind(outputType), repaired)
				}
				diag.RepairAttempted = true
			}
			if parseErr != nil {
				response = StructuredResponse{Kind: OutputPlainText, Content: text}
				diag.SchemaRecoveryFailed = true
			}
			endStep(parseErr)

			emitState(StateDone)
			return Result{
				Response:    response,
				Diagnostics: diag,
				Messages:    state.Messages,
				Usage:       usageFromState(state),
				FinalState:  StateDone,
			}, nil
		}

		// --- DispatchingToolCalls ---
		endStep = logger.Step(StateDispatchingToolCalls, "iteration", state.Iterations)
		emitState(StateDispatchingToolCalls)
		toolUses := resp.GetToolUses()
		results := rt.dispatchToolCalls(ctx, toolCtx, toolUses, req.Callbacks)
		for _, r := range results {
			state.addToolCall(r.Name, r.Input, r.Result)
		}
		state.addMessage(buildToolResultMessage(results))
		endStep(nil)
	}

	emitState(StateFailed)
	return rt.partialResult(state, StateFailed), agentcore.NewTurnBudgetExceeded(turnBudget)
}

func (rt *Runtime) resolveCapability(req RunRequest) (taskPrompt string, outputType string, err error) {
	if req.TaskPrompt != "" {
		return req.TaskPrompt, req.OutputType, nil
	}
	if rt.Capabilities == nil {
		return "", "", fmt.Errorf("no capability registry configured")
	}
	cap, ok := rt.Capabilities.Get(req.CapabilityName)
	if !ok {
		return "", "", fmt.Errorf("unknown capability %q", req.CapabilityName)
	}
	outputType = cap.OutputType
	if req.OutputType != "" {
		outputType = req.OutputType
	}
	return cap.TaskPrompt, outputType, nil
}

// attemptRepair issues the single repair prompt permitted by step 3 of the
// structured-output recovery chain, and returns the repaired text.
func (rt *Runtime) attemptRepair(
	ctx context.Context,
	logger *logging.Logger,
	toolCtx *tools.ToolContext,
	preamble string,
	toolDefs []llm.ToolDefinition,
	state *conversationState,
	maxMessages int,
	kind OutputKind,
	cause error,
) (string, error) {
	endStep := logger.Step(logging.Label("repair_prompt"))
	defer func() { endStep(nil) }()

	repairText := fmt.Sprintf(
		"Your last response did not match the required schema: %s. "+
			"Reply again with only the corrected output, conforming exactly to the expected format.",
		cause.Error(),
	)
	state.addMessage(llm.NewTextMessage(llm.RoleUser, repairText))
	state.Iterations++

	resp, err := rt.Provider.Call(ctx, llm.AgentRequest{
		System:   preamble,
		Messages: truncateForBudget(state.Messages, maxMessages),
		Tools:    toolDefs,
	})
	if err != nil {
		return "", err
	}
	state.updateUsage(resp.Usage)
	state.addMessage(resp.ToMessage())
	return resp.GetText(), nil
}

func (rt *Runtime) partialResult(state *conversationState, final State) Result {
	return Result{
		Messages:   state.Messages,
		Usage:      usageFromState(state),
		FinalState: final,
	}
}

func usageFromState(state *conversationState) Usage {
	return Usage{
		TotalIterations:   state.Iterations,
		TotalInputTokens:  state.InputTokens,
		TotalOutputTokens: state.OutputTokens,
	}
}

type toolExecResult struct {
	ID     string
	Name   string
	Input  map[string]any
	Result tools.ToolResult
}

// workspaceToolName is the only tool requiring single-writer serialization
// (§5): its Workspace is shared, in-memory, per-invocation state.
const workspaceToolName = "workspace"

// dispatchToolCalls runs every tool_use block from one assistant turn.
// Side-effect-free tools run concurrently; workspace calls are serialized
// relative to each other via workspaceMu, but may still run concurrently
// with the read-only tools. Results are always assembled back in input
// order, regardless of completion order (§5 ordering guarantee).
func (rt *Runtime) dispatchToolCalls(
	ctx context.Context,
	toolCtx *tools.ToolContext,
	uses []llm.ContentBlock,
	cb Callbacks,
) []toolExecResult {
	results := make([]toolExecResult, len(uses))
	var workspaceMu sync.Mutex
	var wg sync.WaitGroup

	for i, use := range uses {
		i, use := i, use
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cb.OnToolCall != nil {
				cb.OnToolCall(use.Name, use.Input)
			}

			if use.Name == workspaceToolName {
				workspaceMu.Lock()
				defer workspaceMu.Unlock()
			}

			tool := rt.Registry.Get(use.Name)
			var result tools.ToolResult
			if tool == nil {
				result = tools.NewErrorResultf("tool not found: %s", use.Name)
			} else if err := tools.ValidateInput(tool, use.Input); err != nil {
				wrapped := agentcore.NewToolInvocationError(use.Name, string(agentcore.ToolInvalidArguments), err.Error(), err)
				rt.logToolFailure(use.Name, wrapped)
				result = tools.NewErrorResult(wrapped)
			} else {
				r, err := tool.Execute(ctx, toolCtx, use.Input)
				if err != nil {
					wrapped := wrapToolError(use.Name, err)
					rt.logToolFailure(use.Name, wrapped)
					result = tools.NewErrorResult(wrapped)
				} else {
					result = r
				}
			}

			if cb.OnToolResult != nil {
				cb.OnToolResult(use.Name, result)
			}
			results[i] = toolExecResult{ID: use.ID, Name: use.Name, Input: use.Input, Result: result}
		}()
	}
	wg.Wait()
	return results
}

func buildToolResultMessage(results []toolExecResult) llm.Message {
	content := make([]llm.ContentBlock, len(results))
	for i, r := range results {
		content[i] = llm.ContentBlock{
			Type:      llm.ContentTypeToolResult,
			ToolUseID: r.ID,
			Content:   r.Result.Content,
			IsError:   r.Result.IsError,
		}
	}
	return llm.Message{Role: llm.RoleUser, Content: content}
}

func toolDefinitions(registry *tools.Registry, toolCtx *tools.ToolContext) ([]llm.ToolDefinition, error) {
	all := registry.List()
	defs := make([]llm.ToolDefinition, 0, len(all))
	for _, t := range all {
		if t.Name() == "parallel_analyze" && !toolCtx.Permissions.AllowDelegation {
			continue
		}
		if t.Name() == workspaceToolName && !toolCtx.Permissions.AllowWorkspace {
			continue
		}
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

// truncateForBudget keeps the first message (the opening prompt) and the
// most recent maxMessages-1 messages, pulling in any earlier tool_use
// message still referenced by a kept tool_result so pairs never split.
func truncateForBudget(messages []llm.Message, maxMessages int) []llm.Message {
	if len(messages) <= maxMessages || maxMessages <= 0 {
		return messages
	}
	keepFrom := len(messages) - maxMessages + 1
	if keepFrom < 1 {
		keepFrom = 1
	}

	for {
		ids := toolUseIDs(messages[0:1])
		for i := keepFrom; i < len(messages); i++ {
			for _, b := range messages[i].Content {
				if b.Type == llm.ContentTypeToolUse && b.ID != "" {
					ids[b.ID] = true
				}
			}
		}
		expanded := false
		for i := keepFrom; i < len(messages); i++ {
			for _, b := range messages[i].Content {
				if b.Type == llm.ContentTypeToolResult && b.ToolUseID != "" && !ids[b.ToolUseID] {
					for j := keepFrom - 1; j >= 1; j-- {
						if hasToolUseID(messages[j], b.ToolUseID) {
							keepFrom = j
							expanded = true
							break
						}
					}
				}
				if expanded {
					break
				}
			}
			if expanded {
				break
			}
		}
		if !expanded {
			break
		}
	}

	out := make([]llm.Message, 0, len(messages)-keepFrom+1)
	out = append(out, messages[0])
	out = append(out, messages[keepFrom:]...)
	return out
}

func toolUseIDs(messages []llm.Message) map[string]bool {
	ids := make(map[string]bool)
	for _, m := range messages {
		for _, b := range m.Content {
			if b.Type == llm.ContentTypeToolUse && b.ID != "" {
				ids[b.ID] = true
			}
		}
	}
	return ids
}

func hasToolUseID(m llm.Message, id string) bool {
	for _, b := range m.Content {
		if b.Type == llm.ContentTypeToolUse && b.ID == id {
			return true
		}
	}
	return false
}

var errNoChanges = errors.New("no changes to describe")

// checkForChanges implements the empty-changeset short-circuit in §7: for
// capabilities operating on a diff, an empty changeset returns a benign
// notice before any model call is made.
func checkForChanges(ctx context.Context, toolCtx *tools.ToolContext) error {
	if toolCtx.Repo == nil {
		return nil
	}
	files, err := toolCtx.Repo.ChangedFiles(ctx, true, "", "")
	if err != nil {
		return nil
	}
	if len(files) == 0 {
		return errNoChanges
	}
	return nil
}

// wrapToolError classifies a tool execution failure into the agent core's
// sum-typed Error: a *repository.RepositoryError carries its own Kind
// through unchanged, everything else becomes a generic internal tool
// failure. The wrapped error is still only ever surfaced to the model as
// tool-result text (§7: tool errors are recovered locally and never abort
// the run by themselves) — wrapping it exists so logs and any top-level
// diagnostics can switch on Kind instead of matching strings.
func wrapToolError(toolName string, err error) *agentcore.Error {
	var repoErr *repository.RepositoryError
	if errors.As(err, &repoErr) {
		wrapped := agentcore.FromRepositoryError(repoErr)
		wrapped.ToolName = toolName
		return wrapped
	}
	return agentcore.NewToolInvocationError(toolName, string(agentcore.ToolInternal), err.Error(), err)
}

// logToolFailure records a tool execution failure at debug granularity,
// falling back to the default logger when the runtime wasn't given one
// (dispatchToolCalls runs detached from the per-invocation logger that
// Run/run thread through explicitly).
func (rt *Runtime) logToolFailure(toolName string, err *agentcore.Error) {
	logger := rt.Logger
	if logger == nil {
		logger = logging.Default()
	}
	endStep := logger.Step(logging.Label("tool_call"), "tool", toolName)
	endStep(err)
}
