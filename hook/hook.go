// Package hook provides lifecycle interception points for the agent loop.
//
// Hooks are plain functions registered per Event with an integer priority.
// The Manager owns ordering (descending priority, registration order on ties)
// and the merge policy of the chain: the first denial wins immediately,
// otherwise the last non-nil replacement arguments / messages win. A hook
// that returns an error or panics is skipped; one misbehaving hook never
// breaks the agent.
package hook

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/agentkit/core"
	"github.com/hupe1980/agentkit/logging"
	"github.com/hupe1980/agentkit/model"
)

// Event identifies a lifecycle point of the agent loop.
type Event string

const (
	// EventPreToolUse fires before a tool executes. Hooks may deny the call
	// or replace its arguments.
	EventPreToolUse Event = "pre_tool_use"

	// EventPostToolUse fires after a tool executed (or was denied) and sees
	// the final result text.
	EventPostToolUse Event = "post_tool_use"

	// EventPreModelCall fires before each model call. Hooks may replace the
	// message list (redaction, prompt rewriting).
	EventPreModelCall Event = "pre_model_call"

	// EventPostModelCall fires after a successful model call. Informational.
	EventPostModelCall Event = "post_model_call"

	// EventOnError fires when the model call fails. Informational.
	EventOnError Event = "on_error"

	// EventOnComplete fires when the agent produced its final answer.
	EventOnComplete Event = "on_complete"
)

// Events lists every lifecycle event in loop order.
var Events = []Event{
	EventPreModelCall,
	EventPostModelCall,
	EventPreToolUse,
	EventPostToolUse,
	EventOnComplete,
	EventOnError,
}

// Context is the snapshot passed to hooks. Only the fields relevant to the
// firing event are populated.
type Context struct {
	Event Event
	Agent string
	Turn  int

	// Tool events.
	ToolName   string
	ToolCallID string
	ToolArgs   map[string]any
	ArgsError  error // Set when the model's argument payload was not valid JSON
	ToolResult string

	// PreModelCall.
	Messages []core.Message

	// PostModelCall.
	Response *model.Response

	// OnComplete.
	Content string

	// OnError.
	Err error

	Metadata map[string]any
}

// Result is the outcome of a hook. The zero value allows and changes nothing.
type Result struct {
	Deny             bool
	Reason           string
	ModifiedArgs     map[string]any
	ModifiedMessages []core.Message
}

// Allowed reports whether the result lets the operation proceed.
func (r Result) Allowed() bool { return !r.Deny }

// Denied returns a result that blocks the operation.
func Denied(reason string) *Result { return &Result{Deny: true, Reason: reason} }

// ReplaceArgs returns a result that substitutes the tool arguments.
func ReplaceArgs(args map[string]any) *Result { return &Result{ModifiedArgs: args} }

// ReplaceMessages returns a result that substitutes the message list.
func ReplaceMessages(msgs []core.Message) *Result { return &Result{ModifiedMessages: msgs} }

// Func is a hook callback. Returning a nil Result passes through.
type Func func(ctx context.Context, hc *Context) (*Result, error)

// Hook binds a callback to an event with a priority. Higher priorities run first.
type Hook struct {
	Event    Event
	Priority int
	Name     string
	Func     Func
}

// PreToolUse constructs a pre-tool-use hook.
func PreToolUse(priority int, fn Func) Hook {
	return Hook{Event: EventPreToolUse, Priority: priority, Func: fn}
}

// PostToolUse constructs a post-tool-use hook.
func PostToolUse(priority int, fn Func) Hook {
	return Hook{Event: EventPostToolUse, Priority: priority, Func: fn}
}

// PreModelCall constructs a pre-model-call hook.
func PreModelCall(priority int, fn Func) Hook {
	return Hook{Event: EventPreModelCall, Priority: priority, Func: fn}
}

// PostModelCall constructs a post-model-call hook.
func PostModelCall(priority int, fn Func) Hook {
	return Hook{Event: EventPostModelCall, Priority: priority, Func: fn}
}

// OnError constructs an on-error hook.
func OnError(priority int, fn Func) Hook {
	return Hook{Event: EventOnError, Priority: priority, Func: fn}
}

// OnComplete constructs an on-complete hook.
func OnComplete(priority int, fn Func) Hook {
	return Hook{Event: EventOnComplete, Priority: priority, Func: fn}
}

// Manager holds priority sorted hook chains keyed by event.
//
// Concurrency: registration is guarded by a RWMutex and chains are copied
// under the read lock before firing, so hooks may register further hooks.
type Manager struct {
	mu     sync.RWMutex
	hooks  map[Event][]Hook
	logger logging.Logger
}

// NewManager creates an empty Manager. A nil logger discards panic reports.
func NewManager(logger logging.Logger) *Manager {
	return &Manager{
		hooks:  make(map[Event][]Hook),
		logger: logging.Ensure(logger),
	}
}

// Register adds fn for the event and re-sorts the chain by descending priority.
func (m *Manager) Register(event Event, fn Func, priority int) {
	m.Add(Hook{Event: event, Priority: priority, Func: fn})
}

// Add registers pre-built hooks. Hooks without a Func are ignored.
func (m *Manager) Add(hooks ...Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range hooks {
		if h.Func == nil {
			continue
		}
		chain := append(m.hooks[h.Event], h)
		// Stable: equal priorities keep registration order.
		slices.SortStableFunc(chain, func(a, b Hook) int { return cmp.Compare(b.Priority, a.Priority) })
		m.hooks[h.Event] = chain
	}
}

// Has reports whether any hook is registered for the event.
func (m *Manager) Has(event Event) bool { return m.Len(event) > 0 }

// Len returns the number of hooks registered for the event.
func (m *Manager) Len(event Event) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hooks[event])
}

// Run executes the chain for event and returns the merged result.
func (m *Manager) Run(ctx context.Context, event Event, hc *Context) Result {
	m.mu.RLock()
	chain := slices.Clone(m.hooks[event])
	m.mu.RUnlock()

	merged := Result{}
	if len(chain) == 0 {
		return merged
	}

	if hc == nil {
		hc = &Context{}
	}
	hc.Event = event

	for i, h := range chain {
		res, err := m.call(ctx, h, hc)
		if err != nil {
			m.logger.Warn("hook.callback.failed", "event", string(event), "index", i, "hook", h.Name, "error", err.Error())
			continue
		}
		if res == nil {
			continue
		}
		if res.Deny {
			return *res
		}
		if res.ModifiedArgs != nil {
			merged.ModifiedArgs = res.ModifiedArgs
		}
		if res.ModifiedMessages != nil {
			merged.ModifiedMessages = res.ModifiedMessages
		}
	}

	return merged
}

func (m *Manager) call(ctx context.Context, h Hook, hc *Context) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("hook.callback.panic", "event", string(h.Event), "hook", h.Name, "panic", fmt.Sprint(r))
			res, err = nil, fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return h.Func(ctx, hc)
}
