package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/gitiris/agentcore/pkg/llm"
	"github.com/gitiris/agentcore/pkg/logging"
)

// CompactConfig configures conversation summarization, the runtime's
// second line of defense against a growing message history after plain
// truncateForBudget trimming stops being enough.
type CompactConfig struct {
	Enabled    bool
	Threshold  int // compact once len(messages) exceeds this
	KeepRecent int // messages to keep verbatim after the summary
}

// DefaultCompactConfig returns the thresholds the main agent loop uses
// when a RunRequest doesn't set its own.
func DefaultCompactConfig() CompactConfig {
	return CompactConfig{Enabled: true, Threshold: 30, KeepRecent: 10}
}

const compactSummaryPrompt = `You are a conversation summarizer. Produce a concise but complete summary of the agent conversation below, preserving everything needed to continue the task:

1. Original task and goal
2. Key decisions made so far
3. Files or repository state inspected, with brief notes
4. What has been accomplished
5. What remains

Do not include raw tool call arguments or full tool output — summarize them.`

// Compactor summarizes the older portion of a conversation once it grows
// past Config.Threshold, keeping the opening prompt, a generated summary,
// and the most recent messages, with tool_use/tool_result pairing intact.
type Compactor struct {
	Provider llm.LLMProvider
	Config   CompactConfig
	Logger   *logging.Logger
}

// NewCompactor builds a Compactor over provider with the given config.
func NewCompactor(provider llm.LLMProvider, config CompactConfig) *Compactor {
	return &Compactor{Provider: provider, Config: config, Logger: logging.Default()}
}

// ShouldCompact reports whether messages has grown past the threshold.
func (c *Compactor) ShouldCompact(messages []llm.Message) bool {
	return c.Config.Enabled && len(messages) > c.Config.Threshold
}

// Compact summarizes the middle of the conversation: messages[0] (the
// opening prompt) is kept, messages[1:summarizeEnd] become one summary
// message, and the last KeepRecent messages are kept verbatim (extended
// backward if needed so no tool_result is left without its tool_use).
func (c *Compactor) Compact(ctx context.Context, messages []llm.Message) ([]llm.Message, error) {
	if len(messages) <= c.Config.KeepRecent+1 {
		return messages, nil
	}
	summarizeEnd := len(messages) - c.Config.KeepRecent
	if summarizeEnd <= 1 {
		return messages, nil
	}

	logger := c.Logger
	if logger == nil {
		logger = logging.Default()
	}
	toSummarize := messages[1:summarizeEnd]
	endStep := logger.Step(logging.Label("compact"), "messages", len(messages), "summarizing", len(toSummarize))

	summary, err := c.generateSummary(ctx, formatMessagesForSummary(toSummarize))
	if err != nil {
		endStep(err)
		return truncateForBudget(messages, c.Config.KeepRecent+1), nil
	}
	endStep(nil)

	result := make([]llm.Message, 0, c.Config.KeepRecent+2)
	result = append(result, messages[0])
	result = append(result, llm.Message{
		Role: llm.RoleAssistant,
		Content: []llm.ContentBlock{{
			Type: llm.ContentTypeText,
			Text: fmt.Sprintf("[Conversation summary — %d messages compacted]\n\n%s", len(toSummarize), summary),
		}},
	})
	result = append(result, ensureToolPairsIntact(messages[summarizeEnd:], messages[:summarizeEnd])...)
	return result, nil
}

func (c *Compactor) generateSummary(ctx context.Context, conversationText string) (string, error) {
	resp, err := c.Provider.Call(ctx, llm.AgentRequest{
		System:   compactSummaryPrompt,
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "Summarize the following conversation:\n\n"+conversationText)},
	})
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	summary := resp.GetText()
	if summary == "" {
		return "", fmt.Errorf("summary generation returned empty response")
	}
	return summary, nil
}

func formatMessagesForSummary(messages []llm.Message) string {
	var b strings.Builder
	for i, msg := range messages {
		role := "User"
		if msg.Role == llm.RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "--- Message %d (%s) ---\n", i+1, role)
		for _, block := range msg.Content {
			switch block.Type {
			case llm.ContentTypeText:
				if block.Text != "" {
					b.WriteString(block.Text)
					b.WriteString("\n")
				}
			case llm.ContentTypeToolUse:
				fmt.Fprintf(&b, "[Tool call: %s]\n", block.Name)
			case llm.ContentTypeToolResult:
				content := block.Content
				if len(content) > 500 {
					content = content[:500] + "... (truncated)"
				}
				if block.IsError {
					fmt.Fprintf(&b, "[Tool error: %s]\n", content)
				} else {
					fmt.Fprintf(&b, "[Tool result: %s]\n", content)
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ensureToolPairsIntact prepends any older messages still needed to keep
// a tool_result in recentMessages paired with its tool_use, the same
// invariant truncateForBudget enforces for plain truncation.
func ensureToolPairsIntact(recentMessages, olderMessages []llm.Message) []llm.Message {
	recentToolUseIDs := map[string]bool{}
	for _, msg := range recentMessages {
		for _, block := range msg.Content {
			if block.Type == llm.ContentTypeToolUse && block.ID != "" {
				recentToolUseIDs[block.ID] = true
			}
		}
	}

	orphaned := map[string]bool{}
	for _, msg := range recentMessages {
		for _, block := range msg.Content {
			if block.Type == llm.ContentTypeToolResult && block.ToolUseID != "" && !recentToolUseIDs[block.ToolUseID] {
				orphaned[block.ToolUseID] = true
			}
		}
	}
	if len(orphaned) == 0 {
		return recentMessages
	}

	var needed []llm.Message
	for _, msg := range olderMessages {
		for _, block := range msg.Content {
			if block.Type == llm.ContentTypeToolUse && orphaned[block.ID] {
				needed = append(needed, msg)
				break
			}
		}
	}
	if len(needed) == 0 {
		return recentMessages
	}

	result := make([]llm.Message, 0, len(needed)+len(recentMessages))
	result = append(result, needed...)
	result = append(result, recentMessages...)
	return result
}
