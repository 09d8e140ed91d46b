package tool

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/agentkit/internal/util"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a compiled parameter schema used for opt-in argument validation.
type Schema struct {
	raw      map[string]any
	compiled *jsonschema.Schema
}

// SchemaError wraps a JSON Schema validation failure.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema validation failed: %v", e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// CompileSchema compiles a raw JSON schema map.
func CompileSchema(raw map[string]any) (*Schema, error) {
	if raw == nil {
		raw = emptySchema()
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("parameters.json", doc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	compiled, err := c.Compile("parameters.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Schema{raw: raw, compiled: compiled}, nil
}

// Raw returns the schema map the Schema was compiled from.
func (s *Schema) Raw() map[string]any {
	if s == nil {
		return nil
	}
	return s.raw
}

// Validate checks args against the schema. A Schema without a compiled
// validator falls back to util.ValidateParameters.
func (s *Schema) Validate(args map[string]any) error {
	if s == nil {
		return nil
	}

	if s.compiled == nil {
		return util.ValidateParameters(args, s.raw)
	}

	// Round-trip through JSON so hook supplied values (int, []string, structs)
	// are checked the same way as model supplied ones.
	instance, err := normalize(args)
	if err != nil {
		return &SchemaError{Err: err}
	}

	if err := s.compiled.Validate(instance); err != nil {
		return &SchemaError{Err: err}
	}

	return nil
}

func compileOrBasic(raw map[string]any) *Schema {
	s, err := CompileSchema(raw)
	if err != nil {
		return &Schema{raw: raw}
	}
	return s
}

func normalize(args map[string]any) (any, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}
