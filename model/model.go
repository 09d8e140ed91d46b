package model

import (
	"context"

	"github.com/hupe1980/agentkit/core"
)

// FinishReasonToolCalls is the normalized finish reason reported when the
// model stops to request tool invocations.
const FinishReasonToolCalls = "tool_calls"

// FinishReasonStop is the normalized finish reason of a plain completion.
const FinishReasonStop = "stop"

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures one chat completion call.
type Request struct {
	Model       string           `json:"model,omitempty"` // Overrides the adapter default when set
	Messages    []core.Message   `json:"messages"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   *int             `json:"max_tokens,omitempty"`
	Tools       []ToolDefinition `json:"tools,omitempty"` // nil disables tool calling
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates other into u. A zero TotalTokens on other is derived from
// its prompt and completion counters.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	total := other.TotalTokens
	if total == 0 {
		total = other.PromptTokens + other.CompletionTokens
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += total
}

// Choice is one completion alternative.
type Choice struct {
	Index        int          `json:"index"`
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
}

// Response is the result of a chat completion call.
type Response struct {
	ID      string      `json:"id"`
	Model   string      `json:"model"`
	Choices []Choice    `json:"choices"`
	Usage   *TokenUsage `json:"usage,omitempty"`
}

// First returns the first choice, if any.
func (r *Response) First() (Choice, bool) {
	if r == nil || len(r.Choices) == 0 {
		return Choice{}, false
	}
	return r.Choices[0], true
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "langchain", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the chat completion collaborator driven by agents. Implementations
// own transport concerns (retries, timeouts, authentication).
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// NewTextResponse builds a single choice response carrying assistant text.
func NewTextResponse(content string) *Response {
	return &Response{
		ID:      core.NewID(),
		Choices: []Choice{{Message: core.AssistantMessage(content), FinishReason: FinishReasonStop}},
	}
}

// NewToolCallResponse builds a single choice response requesting tool calls.
func NewToolCallResponse(calls ...core.ToolCall) *Response {
	return &Response{
		ID:      core.NewID(),
		Choices: []Choice{{Message: core.AssistantMessage("", calls...), FinishReason: FinishReasonToolCalls}},
	}
}

// WithUsage sets usage on the response and returns it (builder helper).
func (r *Response) WithUsage(prompt, completion int) *Response {
	r.Usage = &TokenUsage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
	return r
}
