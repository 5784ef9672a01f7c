package agent

import (
	"github.com/gitiris/agentcore/pkg/llm"
	"github.com/gitiris/agentcore/pkg/tools"
)

// ToolCallRecord records a single tool invocation and its result.
type ToolCallRecord struct {
	Name   string
	Input  map[string]any
	Result tools.ToolResult
}

// conversationState tracks one invocation's message history and resource
// usage across loop iterations. Messages are appended in order and never
// reordered. When RunRequest.Compact is enabled, the runtime replaces the
// older messages with a summary (see Compactor), so those entries are
// dropped from Messages.
type conversationState struct {
	Messages []llm.Message

	Iterations   int
	InputTokens  int
	OutputTokens int

	ToolCalls []ToolCallRecord

	LastResponse llm.AgentResponse
}

func newConversationState(initial []llm.Message) *conversationState {
	return &conversationState{
		Messages: append([]llm.Message{}, initial...),
	}
}

func (s *conversationState) addMessage(msg llm.Message) {
	s.Messages = append(s.Messages, msg)
}

func (s *conversationState) addToolCall(name string, input map[string]any, result tools.ToolResult) {
	s.ToolCalls = append(s.ToolCalls, ToolCallRecord{Name: name, Input: input, Result: result})
}

func (s *conversationState) updateUsage(usage llm.Usage) {
	s.InputTokens += usage.InputTokens
	s.OutputTokens += usage.OutputTokens
}
