// Package tool implements the function / tool calling subsystem that lets agents
// invoke structured capabilities (APIs, computations, side‑effects). A tool is a
// Definition value: a unique name, a description shown to the model, a JSON
// schema describing its parameters and the bound Go function. Definitions are
// collected in a Registry owned by exactly one agent.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/hupe1980/agentkit/internal/util"
	"github.com/hupe1980/agentkit/model"
)

// Error codes attached to ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodePanic      = "PANIC"
)

// ErrToolNotFound is returned by Registry.Execute for unknown tool names.
var ErrToolNotFound = errors.New("tool not found")

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// Func is the executable bound to a tool. Arguments arrive as the decoded JSON
// object the model produced (or a hook substituted). The returned value is
// rendered to text before it is fed back to the model.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Options configures a Definition.
type Options struct {
	// Validate enables JSON Schema validation of arguments before the
	// function runs. Off by default: schema violations are the function's
	// responsibility.
	Validate bool
}

// WithValidation turns on argument validation against the parameter schema.
func WithValidation() func(o *Options) {
	return func(o *Options) { o.Validate = true }
}

// Definition is a tool the model can call.
//
// A Definition has no mutable state after construction and is safe for
// concurrent use as long as the bound function is.
type Definition struct {
	name        string
	description string
	parameters  map[string]any
	fn          Func
	validator   *Schema
}

// New constructs a Definition from an explicit parameter schema.
//
// Example:
//
//	sum := tool.New(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(ctx context.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
//
// With WithValidation the schema is compiled once here; a schema that does
// not compile falls back to the basic required/type check.
func New(name, description string, parameters map[string]any, fn Func, optFns ...func(o *Options)) *Definition {
	opts := Options{}
	for _, f := range optFns {
		f(&opts)
	}

	if parameters == nil {
		parameters = emptySchema()
	}

	d := &Definition{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}

	if opts.Validate {
		d.validator = compileOrBasic(parameters)
	}

	return d
}

// NewFromStruct derives the parameter schema from a struct using reflection
// (see util.CreateSchema for the tag rules).
func NewFromStruct(name, description string, structType any, fn Func, optFns ...func(o *Options)) *Definition {
	return New(name, description, util.CreateSchema(structType), fn, optFns...)
}

// NewTyped builds a strongly typed tool. The parameter schema is derived from
// T, default tags are applied to missing arguments and the decoded argument
// object is converted into T before fn runs.
//
//	type WeatherArgs struct {
//	  City  string `json:"city" description:"City name"`
//	  Units string `json:"units" default:"celsius"`
//	}
//
//	weather := tool.NewTyped("get_weather", "Get current weather for a city",
//	  func(ctx context.Context, args WeatherArgs) (any, error) { ... })
func NewTyped[T any](name, description string, fn func(ctx context.Context, args T) (any, error), optFns ...func(o *Options)) *Definition {
	var zero T
	defaults := util.Defaults(zero)

	return NewFromStruct(name, description, zero, func(ctx context.Context, args map[string]any) (any, error) {
		merged := make(map[string]any, len(args)+len(defaults))
		for k, v := range defaults {
			merged[k] = v
		}
		for k, v := range args {
			merged[k] = v
		}

		raw, err := json.Marshal(merged)
		if err != nil {
			return nil, NewToolError(name, fmt.Sprintf("encode arguments: %v", err), CodeValidation)
		}

		var typed T
		if err := json.Unmarshal(raw, &typed); err != nil {
			return nil, NewToolError(name, fmt.Sprintf("decode arguments: %v", err), CodeValidation)
		}

		return fn(ctx, typed)
	}, optFns...)
}

// FromFunc adapts a bare function without an explicit schema. The tool name
// is the function's own name; anonymous closures are named after their
// package and enclosing function ("tool_TestX_func1") so two closures never
// collide in one registry. The description is "Execute <name>" and the
// parameter schema is an unconstrained object. This is a permissive default;
// prefer New, NewFromStruct or NewTyped for anything the model relies on.
func FromFunc(fn Func) *Definition {
	name := funcName(fn)
	return New(name, fmt.Sprintf("Execute %s", name), emptySchema(), fn)
}

// Name returns the unique tool name used in function call declarations and routing.
func (d *Definition) Name() string { return d.name }

// Description returns the natural language description exposed to models.
func (d *Definition) Description() string { return d.description }

// Parameters returns the JSON schema describing expected arguments.
func (d *Definition) Parameters() map[string]any { return d.parameters }

// Schema converts the definition into the shape the model collaborator expects.
func (d *Definition) Schema() model.ToolDefinition {
	return model.ToolDefinition{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        d.name,
			Description: d.description,
			Parameters:  d.parameters,
		},
	}
}

// Call validates (when enabled) and invokes the bound function.
//
// Error Semantics:
//
//	*ToolError (returned directly)  -> forwarded unchanged
//	validation failure              -> *ToolError{Code: "VALIDATION_ERROR"}
//	panic inside the function       -> *ToolError{Code: "PANIC"}
//	other error                     -> *ToolError{Code: "EXECUTION_ERROR"}
func (d *Definition) Call(ctx context.Context, args map[string]any) (result any, err error) {
	if args == nil {
		args = map[string]any{}
	}

	if d.validator != nil {
		if verr := d.validator.Validate(args); verr != nil {
			return nil, &ToolError{
				Tool:    d.name,
				Message: fmt.Sprintf("parameter validation failed: %v", verr),
				Code:    CodeValidation,
				Details: verr,
			}
		}
	}

	if d.fn == nil {
		return nil, NewToolError(d.name, "no function bound", CodeExecution)
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = NewToolError(d.name, fmt.Sprintf("panic: %v", r), CodePanic)
		}
	}()

	result, err = d.fn(ctx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return nil, toolErr
		}
		return nil, &ToolError{Tool: d.name, Message: err.Error(), Code: CodeExecution}
	}

	return result, nil
}

// Stringify renders a tool result as text for the model. Strings and
// Stringers pass through, byte slices are decoded, composite values are JSON
// encoded and everything else uses fmt.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	}

	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}

	return fmt.Sprint(v)
}

func emptySchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// funcName returns the unqualified name of fn ("pkg.(*T).method-fm" ->
// "method"). Closures ("pkg.Outer.func1") keep their package and enclosing
// function: "pkg_Outer_func1".
func funcName(fn Func) string {
	if fn == nil {
		return "anonymous"
	}

	full := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	full = strings.TrimSuffix(full, "-fm")

	if closureName.MatchString(full) {
		return strings.NewReplacer(".", "_", "(", "", ")", "", "*", "").Replace(full)
	}

	if i := strings.LastIndex(full, "."); i >= 0 {
		full = full[i+1:]
	}

	if full == "" {
		return "anonymous"
	}

	return full
}

// closureName matches compiler names of function literals ("Outer.func1",
// "Outer.func1.2").
var closureName = regexp.MustCompile(`\.func\d+(\.\d+)*$`)
