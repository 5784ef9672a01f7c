package tools

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidateInput checks a tool call's decoded arguments against the tool's
// own InputSchema before Execute ever sees them, so a malformed call
// surfaces as a ToolInvocationError rather than a panic or a confusing
// Execute-time type assertion failure.
func ValidateInput(tool Tool, input map[string]any) error {
	schemaDoc, err := roundTripToAny(tool.InputSchema())
	if err != nil {
		return fmt.Errorf("encode schema for %s: %w", tool.Name(), err)
	}

	c := jsonschema.NewCompiler()
	resource := tool.Name() + ".schema.json"
	if err := c.AddResource(resource, schemaDoc); err != nil {
		return fmt.Errorf("add schema resource for %s: %w", tool.Name(), err)
	}
	schema, err := c.Compile(resource)
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", tool.Name(), err)
	}

	payloadDoc, err := roundTripToAny(input)
	if err != nil {
		return fmt.Errorf("encode input for %s: %w", tool.Name(), err)
	}
	if err := schema.Validate(payloadDoc); err != nil {
		return fmt.Errorf("%s: invalid arguments: %w", tool.Name(), err)
	}
	return nil
}

// roundTripToAny normalizes a Go value (map[string]any built by hand, or
// a decoded tool call payload) into the plain any-tree jsonschema expects,
// the same way the schema compiles a JSON document rather than a Go struct.
func roundTripToAny(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
