package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Definition Tests --------------------

func sumParams() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}
}

func sumFn(_ context.Context, args map[string]any) (any, error) {
	a, _ := args["a"].(float64)
	b, _ := args["b"].(float64)
	return a + b, nil
}

func TestDefinition_Call_Success(t *testing.T) {
	sum := New("sum", "Add numbers", sumParams(), sumFn)

	result, err := sum.Call(context.Background(), map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestDefinition_Call_ExecutionError(t *testing.T) {
	fail := New("fail", "Fails", nil, func(context.Context, map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	_, err := fail.Call(context.Background(), nil)
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Equal(t, "boom", toolErr.Message)
}

func TestDefinition_Call_ForwardsToolError(t *testing.T) {
	custom := NewToolError("quota", "limit reached", "QUOTA")
	d := New("quota", "", nil, func(context.Context, map[string]any) (any, error) {
		return nil, custom
	})

	_, err := d.Call(context.Background(), nil)
	assert.Same(t, custom, err)
}

func TestDefinition_Call_RecoversPanic(t *testing.T) {
	d := New("explode", "", nil, func(context.Context, map[string]any) (any, error) {
		panic("kaboom")
	})

	result, err := d.Call(context.Background(), nil)
	assert.Nil(t, result)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodePanic, toolErr.Code)
	assert.Contains(t, toolErr.Message, "kaboom")
}

func TestDefinition_NoValidationByDefault(t *testing.T) {
	called := false
	d := New("sum", "Add numbers", sumParams(), func(context.Context, map[string]any) (any, error) {
		called = true
		return "ok", nil
	})

	_, err := d.Call(context.Background(), map[string]any{})
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestDefinition_WithValidation(t *testing.T) {
	d := New("sum", "Add numbers", sumParams(), sumFn, WithValidation())

	_, err := d.Call(context.Background(), map[string]any{"a": 1.0})
	require.Error(t, err)

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeValidation, toolErr.Code)

	var schemaErr *SchemaError
	assert.True(t, errors.As(toolErr.Details.(error), &schemaErr))

	_, err = d.Call(context.Background(), map[string]any{"a": "one", "b": 2.0})
	assert.Error(t, err)

	result, err := d.Call(context.Background(), map[string]any{"a": 1.5, "b": 2.5})
	assert.NoError(t, err)
	assert.Equal(t, 4.0, result)
}

func TestDefinition_Schema(t *testing.T) {
	d := New("sum", "Add numbers", sumParams(), sumFn)
	s := d.Schema()

	assert.Equal(t, "function", s.Type)
	assert.Equal(t, "sum", s.Function.Name)
	assert.Equal(t, "Add numbers", s.Function.Description)
	assert.Equal(t, sumParams(), s.Function.Parameters)
}

type weatherArgs struct {
	City  string `json:"city" description:"City name"`
	Units string `json:"units" default:"celsius"`
	Days  int    `json:"days,omitempty"`
}

func TestNewTyped(t *testing.T) {
	var got weatherArgs
	d := NewTyped("get_weather", "Get current weather", func(_ context.Context, args weatherArgs) (any, error) {
		got = args
		return "sunny in " + args.City, nil
	})

	props := d.Parameters()["properties"].(map[string]any)
	assert.Contains(t, props, "city")
	assert.Contains(t, props, "units")
	assert.ElementsMatch(t, []string{"city"}, d.Parameters()["required"])

	result, err := d.Call(context.Background(), map[string]any{"city": "Berlin", "days": 3.0})
	require.NoError(t, err)
	assert.Equal(t, "sunny in Berlin", result)
	assert.Equal(t, weatherArgs{City: "Berlin", Units: "celsius", Days: 3}, got)
}

func TestNewTyped_DecodeError(t *testing.T) {
	d := NewTyped("get_weather", "", func(context.Context, weatherArgs) (any, error) {
		return nil, nil
	})

	_, err := d.Call(context.Background(), map[string]any{"city": 42.0})

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func lookupOrder(context.Context, map[string]any) (any, error) { return "shipped", nil }

func TestFromFunc(t *testing.T) {
	d := FromFunc(lookupOrder)

	assert.Equal(t, "lookupOrder", d.Name())
	assert.Equal(t, "Execute lookupOrder", d.Description())
	assert.Equal(t, map[string]any{"type": "object", "properties": map[string]any{}}, d.Parameters())
}

func TestFromFunc_ClosuresDoNotCollide(t *testing.T) {
	first := func(context.Context, map[string]any) (any, error) { return "first", nil }
	second := func(context.Context, map[string]any) (any, error) { return "second", nil }

	r := NewRegistry()
	a := r.RegisterFunc(first)
	b := r.RegisterFunc(second)

	assert.NotEqual(t, a.Name(), b.Name())
	assert.True(t, strings.HasPrefix(a.Name(), "tool_TestFromFunc_ClosuresDoNotCollide_func"), a.Name())
	assert.NotContains(t, a.Name(), ".")
	assert.Equal(t, 2, r.Len())

	out, err := r.Execute(context.Background(), b.Name(), nil)
	require.NoError(t, err)
	assert.Equal(t, "second", out)
}

type point struct{ X, Y int }

type label string

func (l label) String() string { return "label:" + string(l) }

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "text", Stringify("text"))
	assert.Equal(t, "raw", Stringify([]byte("raw")))
	assert.Equal(t, "label:x", Stringify(label("x")))
	assert.Equal(t, "42", Stringify(42))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, `{"X":1,"Y":2}`, Stringify(point{1, 2}))
	assert.Equal(t, `{"X":1,"Y":2}`, Stringify(&point{1, 2}))
	assert.Equal(t, `["a","b"]`, Stringify([]string{"a", "b"}))
	assert.Equal(t, `{"k":1}`, Stringify(map[string]int{"k": 1}))
}

// -------------------- Registry Tests --------------------

func TestRegistry_RegisterGet(t *testing.T) {
	r := NewRegistry()
	r.Register(New("search", "Search the web", nil, nil))

	d, ok := r.Get("search")
	require.True(t, ok)
	assert.Equal(t, "search", d.Name())
	assert.Equal(t, "Search the web", d.Description())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_OverwriteKeepsPosition(t *testing.T) {
	r := NewRegistry(
		New("a", "first a", nil, nil),
		New("b", "b", nil, nil),
	)
	r.Register(New("a", "second a", nil, nil))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"a", "b"}, r.Names())

	d, _ := r.Get("a")
	assert.Equal(t, "second a", d.Description())
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry(New("a", "", nil, nil), New("b", "", nil, nil), New("c", "", nil, nil))

	assert.True(t, r.Unregister("b"))
	assert.False(t, r.Unregister("b"))
	assert.Equal(t, []string{"a", "c"}, r.Names())
	assert.False(t, r.Has("b"))
}

func TestRegistry_Execute(t *testing.T) {
	r := NewRegistry(New("sum", "", sumParams(), sumFn))

	out, err := r.Execute(context.Background(), "sum", map[string]any{"a": 1.0, "b": 2.0})
	assert.NoError(t, err)
	assert.Equal(t, "3", out)

	_, err = r.Execute(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestRegistry_Schemas(t *testing.T) {
	assert.Nil(t, NewRegistry().Schemas())

	r := NewRegistry(New("b", "", nil, nil), New("a", "", nil, nil))
	r.RegisterFunc(lookupOrder)

	first := r.Schemas()
	second := r.Schemas()
	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, "b", first[0].Function.Name)
	assert.Equal(t, "a", first[1].Function.Name)
	assert.Equal(t, "lookupOrder", first[2].Function.Name)
}

func TestCompileSchema_Invalid(t *testing.T) {
	broken := map[string]any{
		"type":     "object",
		"$ref":     "#/definitions/missing",
		"required": []string{"q"},
	}
	_, err := CompileSchema(broken)
	assert.Error(t, err)

	// Schemas that do not compile still get the basic required/type check.
	d := New("x", "", broken, func(context.Context, map[string]any) (any, error) {
		return "ok", nil
	}, WithValidation())

	_, err = d.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, CodeValidation, toolErr.Code)
}
