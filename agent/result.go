package agent

import (
	"github.com/hupe1980/agentkit/core"
	"github.com/hupe1980/agentkit/model"
)

// StopReason classifies how a run terminated.
type StopReason string

const (
	// StopComplete means the model produced a final answer.
	StopComplete StopReason = "complete"
	// StopError means the model call failed or the run was cancelled.
	StopError StopReason = "error"
	// StopMaxTurns means the turn budget ran out before a final answer.
	StopMaxTurns StopReason = "max_turns"
)

// MaxTurnsFallback is the content of a max_turns result when no assistant
// message ever carried text.
const MaxTurnsFallback = "Max turns reached without completion."

// Result is the outcome of one Agent run. It is immutable once returned.
type Result struct {
	RunID      string           `json:"run_id"`
	Agent      string           `json:"agent"`
	Content    string           `json:"content"`
	Turns      int              `json:"turns"`
	Usage      model.TokenUsage `json:"usage"`
	ToolCalls  int              `json:"tool_calls_made"`
	Messages   []core.Message   `json:"messages"`
	Model      string           `json:"model"`
	StopReason StopReason       `json:"stop_reason"`

	// Err is the fault behind StopError (model failure or cancellation).
	Err error `json:"-"`
}

// TotalTokens returns the cumulative total token count of the run.
func (r *Result) TotalTokens() int { return r.Usage.TotalTokens }

// Completed reports whether the run ended with a final answer.
func (r *Result) Completed() bool { return r.StopReason == StopComplete }

// EventType names a streaming event.
type EventType string

const (
	// EventText carries the final assistant text.
	EventText EventType = "text"
	// EventToolCall announces a tool invocation before it executes.
	EventToolCall EventType = "tool_call"
	// EventToolResult carries the text fed back to the model for an invocation.
	EventToolResult EventType = "tool_result"
	// EventError reports a terminal failure. No done event follows.
	EventError EventType = "error"
	// EventDone terminates a successful or budget-exhausted stream.
	EventDone EventType = "done"
)

// Event is one unit of a streamed run.
type Event struct {
	Type       EventType      `json:"type"`
	Content    string         `json:"content,omitempty"`
	ToolName   string         `json:"tool_name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolArgs   map[string]any `json:"tool_args,omitempty"`
	Turn       int            `json:"turn"`

	// Result is attached to the terminal event (done or error).
	Result *Result `json:"-"`
}
