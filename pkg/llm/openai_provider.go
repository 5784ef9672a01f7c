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

	"github.com/google/uuid"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	defaultOpenAIMaxAttempts = 5
	defaultOpenAIBackoffSec  = 2
	defaultOpenAIMaxTokens   = 4096
)

// chatClient captures the subset of the OpenAI SDK used here, so tests
// can substitute a fake without making real HTTP calls.
type chatClient interface {
	New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
}

// OpenAIProvider implements LLMProvider on top of github.com/openai/openai-go,
// translating to and from the Claude-shaped AgentRequest/AgentResponse that
// the rest of the core treats as its internal lingua franca.
type OpenAIProvider struct {
	chat        chatClient
	Model       string
	MaxTokens   int
	MaxAttempts int
	Backoff     func(int) time.Duration
	Sleep       func(time.Duration)
}

// NewOpenAIProvider creates an OpenAI-compatible provider from the given
// configuration. BaseURL lets this target OpenAI-compatible endpoints
// (OpenRouter, local gateways) as well as the OpenAI API itself.
func NewOpenAIProvider(cfg LLMProviderConfig) *OpenAIProvider {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultOpenAIMaxAttempts
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultOpenAIMaxTokens
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	client := sdk.NewClient(opts...)

	return &OpenAIProvider{
		chat:        &client.Chat.Completions,
		Model:       cfg.Model,
		MaxTokens:   maxTokens,
		MaxAttempts: maxAttempts,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string { return "openai" }

// Call sends an AgentRequest to the configured OpenAI-compatible endpoint,
// translating Claude-shaped messages (including tool_use/tool_result
// blocks) into Chat Completions messages and back.
func (p *OpenAIProvider) Call(ctx context.Context, req AgentRequest) (AgentResponse, error) {
	if strings.TrimSpace(p.Model) == "" && strings.TrimSpace(req.Model) == "" {
		return AgentResponse{}, errors.New("openai provider: model is empty")
	}
	model := req.Model
	if model == "" {
		model = p.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.MaxTokens
	}

	params, toolCallNames, err := encodeOpenAIRequest(req, model, maxTokens)
	if err != nil {
		return AgentResponse{}, fmt.Errorf("openai provider: encode request: %w", err)
	}

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = defaultOpenAIMaxAttempts
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = openaiDefaultBackoff
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		slog.Debug("openai provider request", "attempt", attempt, "max_attempts", maxAttempts, "model", model)
		resp, err := p.chat.New(ctx, params)
		if err == nil {
			return decodeOpenAIResponse(resp, toolCallNames), nil
		}
		lastErr = err
		if attempt == maxAttempts || !shouldRetryOpenAI(err) {
			break
		}
		d := backoff(attempt)
		slog.Debug("openai provider retrying", "attempt", attempt, "delay", d, "err", err)
		sleep(d)
	}
	return AgentResponse{}, fmt.Errorf("openai provider: %w", lastErr)
}

// encodeOpenAIRequest converts Claude-shaped messages into Chat Completions
// messages. tool_use blocks become assistant tool_calls; tool_result blocks
// become role:"tool" messages keyed by the same call ID, so the server-side
// pairing invariant Claude enforces is preserved across providers.
func encodeOpenAIRequest(req AgentRequest, model string, maxTokens int) (sdk.ChatCompletionNewParams, map[string]string, error) {
	var messages []sdk.ChatCompletionMessageParamUnion
	toolCallNames := make(map[string]string)

	if req.System != "" {
		messages = append(messages, sdk.SystemMessage(req.System))
	}

	for _, m := range req.Messages {
		switch m.Role {
		case RoleUser:
			for _, block := range m.Content {
				switch block.Type {
				case ContentTypeText:
					if block.Text != "" {
						messages = append(messages, sdk.UserMessage(block.Text))
					}
				case ContentTypeToolResult:
					messages = append(messages, sdk.ToolMessage(block.Content, block.ToolUseID))
				}
			}
		case RoleAssistant:
			var text strings.Builder
			var calls []sdk.ChatCompletionMessageToolCallParam
			for _, block := range m.Content {
				switch block.Type {
				case ContentTypeText:
					text.WriteString(block.Text)
				case ContentTypeToolUse:
					argsJSON, err := json.Marshal(block.Input)
					if err != nil {
						return sdk.ChatCompletionNewParams{}, nil, fmt.Errorf("marshal tool_use %s input: %w", block.Name, err)
					}
					toolCallNames[block.ID] = block.Name
					calls = append(calls, sdk.ChatCompletionMessageToolCallParam{
						ID: block.ID,
						Function: sdk.ChatCompletionMessageToolCallFunctionParam{
							Name:      block.Name,
							Arguments: string(argsJSON),
						},
					})
				}
			}
			assistant := sdk.ChatCompletionAssistantMessageParam{ToolCalls: calls}
			if text.Len() > 0 {
				assistant.Content.OfString = sdk.String(text.String())
			}
			messages = append(messages, sdk.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	if len(messages) == 0 {
		return sdk.ChatCompletionNewParams{}, nil, errors.New("at least one message is required")
	}

	params := sdk.ChatCompletionNewParams{
		Model:     shared.ChatModel(model),
		Messages:  messages,
		MaxTokens: sdk.Int(int64(maxTokens)),
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	if len(req.StopSeqs) > 0 {
		params.Stop.OfStringArray = req.StopSeqs
	}
	if tools := encodeOpenAITools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}
	return params, toolCallNames, nil
}

func encodeOpenAITools(defs []ToolDefinition) []sdk.ChatCompletionToolParam {
	if len(defs) == 0 {
		return nil
	}
	out := make([]sdk.ChatCompletionToolParam, 0, len(defs))
	for _, def := range defs {
		out = append(out, sdk.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        def.Name,
				Description: sdk.String(def.Description),
				Parameters:  shared.FunctionParameters(def.InputSchema),
			},
		})
	}
	return out
}

// decodeOpenAIResponse maps a Chat Completions response back into the
// Claude-shaped AgentResponse. toolCallNames is unused on decode (OpenAI's
// own tool_calls already carry the function name) but mirrors the encode
// side's bookkeeping for symmetry and future provider-side name sanitizing.
func decodeOpenAIResponse(resp *sdk.ChatCompletion, _ map[string]string) AgentResponse {
	out := AgentResponse{
		ID:    resp.ID,
		Type:  "message",
		Role:  RoleAssistant,
		Model: resp.Model,
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}
	if len(resp.Choices) == 0 {
		out.StopReason = StopReasonEndTurn
		return out
	}
	choice := resp.Choices[0]
	if choice.Message.Content != "" {
		out.Content = append(out.Content, ContentBlock{Type: ContentTypeText, Text: choice.Message.Content})
	}
	for _, call := range choice.Message.ToolCalls {
		var input map[string]any
		if call.Function.Arguments != "" {
			_ = json.Unmarshal([]byte(call.Function.Arguments), &input)
		}
		id := call.ID
		if id == "" {
			id = uuid.NewString()
		}
		out.Content = append(out.Content, ContentBlock{
			Type: ContentTypeToolUse, ID: id, Name: call.Function.Name, Input: input,
		})
	}
	switch choice.FinishReason {
	case "tool_calls":
		out.StopReason = StopReasonToolUse
	case "length":
		out.StopReason = StopReasonMaxTokens
	case "stop":
		out.StopReason = StopReasonEndTurn
	default:
		out.StopReason = StopReasonEndTurn
	}
	return out
}

func shouldRetryOpenAI(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		return status == 429 || status == 408 || status >= 500
	}
	return true
}

func openaiDefaultBackoff(attempt int) time.Duration {
	base := float64(defaultOpenAIBackoffSec) * float64(time.Second)
	factor := math.Pow(2, float64(attempt-1))
	jitter := 0.5 + rand.Float64()
	return time.Duration(base * factor * jitter)
}
