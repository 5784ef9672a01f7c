package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultClaudeMaxAttempts = 5
	defaultClaudeBackoffSec  = 2
	defaultClaudeMaxTokens   = 4096
)

// messagesClient captures the subset of the Anthropic SDK used here, so
// tests can substitute a fake without making real HTTP calls.
type messagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// ClaudeProvider implements LLMProvider on top of the real Anthropic
// Messages API via github.com/anthropics/anthropic-sdk-go.
type ClaudeProvider struct {
	msg         messagesClient
	Model       string
	MaxTokens   int
	MaxAttempts int
	Backoff     func(int) time.Duration
	Sleep       func(time.Duration)
}

// NewClaudeProvider creates a Claude provider from the given configuration.
func NewClaudeProvider(cfg LLMProviderConfig) *ClaudeProvider {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultClaudeMaxAttempts
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	client := sdk.NewClient(opts...)

	return &ClaudeProvider{
		msg:         &client.Messages,
		Model:       cfg.Model,
		MaxTokens:   maxTokens,
		MaxAttempts: maxAttempts,
	}
}

// Name returns the provider name.
func (p *ClaudeProvider) Name() string { return "claude" }

// Call sends an AgentRequest to Claude and translates the response back
// into the provider-agnostic AgentResponse shape.
func (p *ClaudeProvider) Call(ctx context.Context, req AgentRequest) (AgentResponse, error) {
	if strings.TrimSpace(p.Model) == "" && strings.TrimSpace(req.Model) == "" {
		return AgentResponse{}, errors.New("claude provider: model is empty")
	}
	model := req.Model
	if model == "" {
		model = p.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.MaxTokens
	}

	params, err := encodeClaudeRequest(req, model, maxTokens)
	if err != nil {
		return AgentResponse{}, fmt.Errorf("claude provider: encode request: %w", err)
	}

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = defaultClaudeMaxAttempts
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = claudeDefaultBackoff
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		slog.Debug("claude provider request", "attempt", attempt, "max_attempts", maxAttempts, "model", model)
		msg, err := p.msg.New(ctx, params)
		if err == nil {
			return decodeClaudeResponse(msg), nil
		}
		lastErr = err
		if attempt == maxAttempts || !shouldRetryClaude(err) {
			break
		}
		d := backoff(attempt)
		slog.Debug("claude provider retrying", "attempt", attempt, "delay", d, "err", err)
		sleep(d)
	}
	if isRateLimitedClaude(lastErr) {
		return AgentResponse{}, fmt.Errorf("claude provider rate limited: %w", lastErr)
	}
	return AgentResponse{}, fmt.Errorf("claude provider: %w", lastErr)
}

func encodeClaudeRequest(req AgentRequest, model string, maxTokens int) (sdk.MessageNewParams, error) {
	msgs, err := encodeClaudeMessages(req.Messages)
	if err != nil {
		return sdk.MessageNewParams{}, err
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if len(req.StopSeqs) > 0 {
		params.StopSequences = req.StopSeqs
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	if tools, err := encodeClaudeTools(req.Tools); err != nil {
		return sdk.MessageNewParams{}, err
	} else if len(tools) > 0 {
		params.Tools = tools
	}
	return params, nil
}

func encodeClaudeMessages(msgs []Message) ([]sdk.MessageParam, error) {
	out := make([]sdk.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Content))
		for _, block := range m.Content {
			switch block.Type {
			case ContentTypeText:
				if block.Text != "" {
					blocks = append(blocks, sdk.NewTextBlock(block.Text))
				}
			case ContentTypeToolUse:
				blocks = append(blocks, sdk.NewToolUseBlock(block.ID, block.Input, block.Name))
			case ContentTypeToolResult:
				blocks = append(blocks, sdk.NewToolResultBlock(block.ToolUseID, block.Content, block.IsError))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		switch m.Role {
		case RoleUser:
			out = append(out, sdk.NewUserMessage(blocks...))
		case RoleAssistant:
			out = append(out, sdk.NewAssistantMessage(blocks...))
		default:
			return nil, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("at least one message is required")
	}
	return out, nil
}

func encodeClaudeTools(defs []ToolDefinition) ([]sdk.ToolUnionParam, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	out := make([]sdk.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		raw, err := json.Marshal(def.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("tool %q: marshal schema: %w", def.Name, err)
		}
		var schemaFields map[string]any
		if err := json.Unmarshal(raw, &schemaFields); err != nil {
			return nil, fmt.Errorf("tool %q: decode schema: %w", def.Name, err)
		}
		u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: schemaFields}, def.Name)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(def.Description)
		}
		out = append(out, u)
	}
	return out, nil
}

func decodeClaudeResponse(msg *sdk.Message) AgentResponse {
	resp := AgentResponse{
		ID:         msg.ID,
		Type:       string(msg.Type),
		Role:       Role(msg.Role),
		Model:      string(msg.Model),
		StopReason: StopReason(msg.StopReason),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Content = append(resp.Content, ContentBlock{Type: ContentTypeText, Text: block.Text})
		case "tool_use":
			var input map[string]any
			if raw := block.Input; len(raw) > 0 {
				_ = json.Unmarshal(block.Input, &input)
			}
			resp.Content = append(resp.Content, ContentBlock{
				Type: ContentTypeToolUse, ID: block.ID, Name: block.Name, Input: input,
			})
		}
	}
	return resp
}

func shouldRetryClaude(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		return status == 429 || status == 408 || status == 529 || status >= 500
	}
	return true
}

func isRateLimitedClaude(err error) bool {
	var apiErr *sdk.Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == 429
}

func claudeDefaultBackoff(attempt int) time.Duration {
	base := float64(defaultClaudeBackoffSec) * float64(time.Second)
	factor := math.Pow(2, float64(attempt-1))
	jitter := 0.5 + rand.Float64()
	return time.Duration(base * factor * jitter)
}
