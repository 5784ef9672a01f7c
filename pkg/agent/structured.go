package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// generatedMessagePayload is the wire shape the model is instructed to
// emit for the generated_message output type.
type generatedMessagePayload struct {
	Emoji   string `json:"emoji"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// outputSchemaFor returns the JSON Schema the model is told to conform to
// for JSON-valued output kinds. Markdown* and plain_text kinds are not
// schema-validated (§4.6): any non-empty text is accepted.
func outputSchemaFor(kind OutputKind) map[string]any {
	switch kind {
	case OutputGeneratedMessage:
		return map[string]any{
			"type":                 "object",
			"required":             []any{"title", "message"},
			"additionalProperties": false,
			"properties": map[string]any{
				"emoji":   map[string]any{"type": "string"},
				"title":   map[string]any{"type": "string", "minLength": 1},
				"message": map[string]any{"type": "string", "minLength": 1},
			},
		}
	default:
		return nil
	}
}

// attemptParse runs steps 1-3 of the structured-output recovery chain
// (§4.6): strict JSON parse, then balanced-bracket/fenced-code extraction,
// then schema validation of whatever was decoded. It never calls the
// model; the one-shot repair prompt (step 3's retry) is orchestrated by
// the runtime loop, which calls attemptParse again on the repaired text.
func attemptParse(kind OutputKind, raw string) (StructuredResponse, Diagnostics, error) {
	text := strings.TrimSpace(raw)

	switch kind {
	case OutputMarkdownPullRequest, OutputMarkdownReview, OutputMarkdownChangelog, OutputMarkdownReleaseNotes:
		content := stripFence(text)
		if strings.TrimSpace(content) == "" {
			return StructuredResponse{}, Diagnostics{}, fmt.Errorf("empty markdown content")
		}
		return StructuredResponse{Kind: kind, Content: content}, Diagnostics{}, nil

	case OutputPlainText, "":
		return StructuredResponse{Kind: OutputPlainText, Content: text}, Diagnostics{}, nil

	case OutputGeneratedMessage:
		return parseGeneratedMessage(text)

	default:
		return StructuredResponse{}, Diagnostics{}, fmt.Errorf("unknown output type %q", kind)
	}
}

func parseGeneratedMessage(text string) (StructuredResponse, Diagnostics, error) {
	var payload generatedMessagePayload
	var decodeErr error

	// Step 1: strict parse of the whole response.
	if err := json.Unmarshal([]byte(text), &payload); err == nil {
		decodeErr = nil
	} else {
		decodeErr = err
		// Step 2: extract the largest balanced JSON object, trying a
		// fenced code block first, then raw brace scanning.
		candidate := extractFencedJSON(text)
		if candidate == "" {
			candidate = extractBalancedObject(text)
		}
		if candidate == "" {
			return StructuredResponse{}, Diagnostics{}, fmt.Errorf("no JSON object found in response: %w", decodeErr)
		}
		if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
			return StructuredResponse{}, Diagnostics{}, fmt.Errorf("extracted JSON does not parse: %w", err)
		}
	}

	// Step 3: schema validation against outputSchemaFor, the same
	// jsonschema.Compiler/Validate pattern ValidateInput uses for tool
	// arguments.
	if err := validateAgainstSchema(outputSchemaFor(OutputGeneratedMessage), payload); err != nil {
		return StructuredResponse{}, Diagnostics{}, fmt.Errorf("generated_message failed schema validation: %w", err)
	}

	var diag Diagnostics
	title := payload.Title
	if len(title) > maxTitleLen {
		title = strings.TrimRight(title[:maxTitleLen-1], " .") + "…"
		diag.TitleTruncated = true
	}
	title = strings.TrimSuffix(title, ".")

	return StructuredResponse{
		Kind:    OutputGeneratedMessage,
		Emoji:   payload.Emoji,
		Title:   title,
		Message: payload.Message,
	}, diag, nil
}

// validateAgainstSchema compiles a JSON Schema document and checks v
// against it. schema == nil means no validation is required.
func validateAgainstSchema(schema map[string]any, v any) error {
	if schema == nil {
		return nil
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	var schemaDoc any
	if err := json.Unmarshal(raw, &schemaDoc); err != nil {
		return fmt.Errorf("decode schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	const resource = "generated_message.schema.json"
	if err := c.AddResource(resource, schemaDoc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(resource)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	raw, err = json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	var payloadDoc any
	if err := json.Unmarshal(raw, &payloadDoc); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return compiled.Validate(payloadDoc)
}

// stripFence removes a single surrounding markdown fence (``` or ```lang)
// if the whole text is wrapped in one.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.SplitN(text, "\n", 2)
	if len(lines) != 2 {
		return text
	}
	body := lines[1]
	body = strings.TrimSuffix(strings.TrimRight(body, "\n"), "```")
	return strings.TrimSpace(body)
}

// extractFencedJSON returns the contents of the first ```json fenced
// block, or "" if none is present.
func extractFencedJSON(text string) string {
	const marker = "```json"
	start := strings.Index(text, marker)
	if start == -1 {
		return ""
	}
	rest := text[start+len(marker):]
	end := strings.Index(rest, "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

// extractBalancedObject returns the longest top-level span from a '{' to
// its matching '}', tracking string literals so braces inside quoted
// strings don't throw off the depth count. It returns "" when no '{' has
// a matching '}'.
func extractBalancedObject(text string) string {
	best := ""
	for start := strings.IndexByte(text, '{'); start != -1; {
		depth := 0
		inString := false
		escaped := false
		end := -1
		for i := start; i < len(text) && end == -1; i++ {
			c := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					end = i
				}
			}
		}
		next := start + 1
		if end != -1 {
			if end+1-start > len(best) {
				best = text[start : end+1]
			}
			next = end + 1
		}
		rel := strings.IndexByte(text[next:], '{')
		if rel == -1 {
			break
		}
		start = next + rel
	}
	return best
}
