package hook

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/hupe1980/agentkit/core"
	"github.com/hupe1980/agentkit/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorder(order *[]string, name string, res *Result) Func {
	return func(context.Context, *Context) (*Result, error) {
		*order = append(*order, name)
		return res, nil
	}
}

func TestManager_EmptyChainAllows(t *testing.T) {
	m := NewManager(nil)

	res := m.Run(context.Background(), EventPreToolUse, &Context{ToolName: "x"})
	assert.True(t, res.Allowed())
	assert.Nil(t, res.ModifiedArgs)
	assert.False(t, m.Has(EventPreToolUse))
}

func TestManager_PriorityOrder(t *testing.T) {
	m := NewManager(nil)
	var order []string

	m.Register(EventPreModelCall, recorder(&order, "low", nil), 1)
	m.Register(EventPreModelCall, recorder(&order, "high", nil), 10)
	m.Register(EventPreModelCall, recorder(&order, "tie-a", nil), 5)
	m.Register(EventPreModelCall, recorder(&order, "tie-b", nil), 5)

	m.Run(context.Background(), EventPreModelCall, nil)

	assert.Equal(t, []string{"high", "tie-a", "tie-b", "low"}, order)
	assert.Equal(t, 4, m.Len(EventPreModelCall))
}

func TestManager_PriorityOrderExtremes(t *testing.T) {
	m := NewManager(nil)
	var order []string

	m.Register(EventPreModelCall, recorder(&order, "min", nil), math.MinInt)
	m.Register(EventPreModelCall, recorder(&order, "max", nil), math.MaxInt)
	m.Register(EventPreModelCall, recorder(&order, "zero", nil), 0)

	m.Run(context.Background(), EventPreModelCall, nil)

	assert.Equal(t, []string{"max", "zero", "min"}, order)
}

func TestManager_DenyShortCircuits(t *testing.T) {
	m := NewManager(nil)
	var order []string

	m.Register(EventPreToolUse, recorder(&order, "args", ReplaceArgs(map[string]any{"a": 1})), 10)
	m.Register(EventPreToolUse, recorder(&order, "deny", Denied("not allowed")), 5)
	m.Register(EventPreToolUse, recorder(&order, "late", ReplaceArgs(map[string]any{"b": 2})), 1)

	res := m.Run(context.Background(), EventPreToolUse, &Context{ToolName: "rm"})

	assert.False(t, res.Allowed())
	assert.Equal(t, "not allowed", res.Reason)
	assert.Nil(t, res.ModifiedArgs)
	assert.Equal(t, []string{"args", "deny"}, order)
}

func TestManager_LastWriterWins(t *testing.T) {
	m := NewManager(nil)
	first := []core.Message{core.UserMessage("first")}
	second := []core.Message{core.UserMessage("second")}

	m.Add(
		PreToolUse(3, func(context.Context, *Context) (*Result, error) {
			return &Result{ModifiedArgs: map[string]any{"v": 1}, ModifiedMessages: first}, nil
		}),
		PreToolUse(2, func(context.Context, *Context) (*Result, error) {
			return ReplaceArgs(map[string]any{"v": 2}), nil
		}),
		PreToolUse(1, func(context.Context, *Context) (*Result, error) {
			return ReplaceMessages(second), nil
		}),
		PreToolUse(0, func(context.Context, *Context) (*Result, error) {
			return &Result{}, nil
		}),
	)

	res := m.Run(context.Background(), EventPreToolUse, &Context{})
	assert.True(t, res.Allowed())
	assert.Equal(t, map[string]any{"v": 2}, res.ModifiedArgs)
	assert.Equal(t, second, res.ModifiedMessages)
}

func TestManager_FailingHooksAreSkipped(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))
	m := NewManager(logger)

	m.Add(
		OnComplete(3, func(context.Context, *Context) (*Result, error) {
			panic("broken hook")
		}),
		OnComplete(2, func(context.Context, *Context) (*Result, error) {
			return Denied("ignored"), errors.New("failed")
		}),
		OnComplete(1, func(context.Context, *Context) (*Result, error) {
			return ReplaceArgs(map[string]any{"ok": true}), nil
		}),
	)

	res := m.Run(context.Background(), EventOnComplete, &Context{Content: "done"})
	assert.True(t, res.Allowed())
	assert.Equal(t, map[string]any{"ok": true}, res.ModifiedArgs)
	assert.Contains(t, buf.String(), "hook.callback.panic")
	assert.Contains(t, buf.String(), "hook.callback.failed")
}

func TestManager_ContextCarriesEvent(t *testing.T) {
	m := NewManager(nil)
	var seen *Context

	m.Add(PostToolUse(0, func(_ context.Context, hc *Context) (*Result, error) {
		seen = hc
		return nil, nil
	}))

	m.Run(context.Background(), EventPostToolUse, &Context{Agent: "a", Turn: 2, ToolName: "t", ToolResult: "r"})

	require.NotNil(t, seen)
	assert.Equal(t, EventPostToolUse, seen.Event)
	assert.Equal(t, "a", seen.Agent)
	assert.Equal(t, 2, seen.Turn)
	assert.Equal(t, "r", seen.ToolResult)
}

func TestManager_EventsAreIndependent(t *testing.T) {
	m := NewManager(nil)
	m.Add(OnError(0, func(context.Context, *Context) (*Result, error) {
		return Denied("x"), nil
	}))

	assert.True(t, m.Run(context.Background(), EventPreToolUse, nil).Allowed())
	assert.False(t, m.Run(context.Background(), EventOnError, nil).Allowed())
}

func TestFactories(t *testing.T) {
	noop := func(context.Context, *Context) (*Result, error) { return nil, nil }

	cases := map[Event]Hook{
		EventPreToolUse:    PreToolUse(1, noop),
		EventPostToolUse:   PostToolUse(1, noop),
		EventPreModelCall:  PreModelCall(1, noop),
		EventPostModelCall: PostModelCall(1, noop),
		EventOnError:       OnError(1, noop),
		EventOnComplete:    OnComplete(1, noop),
	}
	for event, h := range cases {
		assert.Equal(t, event, h.Event)
		assert.Equal(t, 1, h.Priority)
	}
	assert.Len(t, Events, len(cases))
}
