package core

import "encoding/json"

// Role identifies the author of a Message.
type Role string

const (
	// RoleSystem marks instruction messages. Memory policies never evict them.
	RoleSystem Role = "system"
	// RoleUser marks end user input.
	RoleUser Role = "user"
	// RoleAssistant marks model output (text and/or tool call requests).
	RoleAssistant Role = "assistant"
	// RoleTool marks the result of a tool invocation.
	RoleTool Role = "tool"
)

// FunctionCall describes the concrete function target of a tool call.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // Opaque JSON payload produced by the model
}

// ToolCall represents a tool invocation requested by the model.
// Unified across vendors so downstream logic does not need per-provider branching.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"` // "function"
	Function FunctionCall `json:"function"`
}

// NewToolCall builds a function typed ToolCall.
func NewToolCall(id, name, arguments string) ToolCall {
	return ToolCall{ID: id, Type: "function", Function: FunctionCall{Name: name, Arguments: arguments}}
}

// Message is one entry of a conversation transcript. It is the canonical shape
// exchanged between memory, the agent loop and model adapters.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // Correlates a tool result with its ToolCall
	Name       string     `json:"name,omitempty"`
}

// SystemMessage creates a system role message.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }

// UserMessage creates a user role message.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// AssistantMessage creates an assistant role message with optional tool calls.
func AssistantMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolResultMessage creates a tool role message correlated with a ToolCall id.
func ToolResultMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

// IsSystem reports whether the message carries the system role.
func (m Message) IsSystem() bool { return m.Role == RoleSystem }

// HasToolCalls reports whether the message requests at least one tool invocation.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// TextLength returns the character length of the content plus the serialized
// tool call list. Used for token estimation.
func (m Message) TextLength() int {
	n := len([]rune(m.Content))
	if len(m.ToolCalls) > 0 {
		if b, err := json.Marshal(m.ToolCalls); err == nil {
			n += len([]rune(string(b)))
		}
	}
	return n
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	if m.ToolCalls != nil {
		calls := make([]ToolCall, len(m.ToolCalls))
		copy(calls, m.ToolCalls)
		m.ToolCalls = calls
	}
	return m
}

// CloneMessages deep copies a message slice. A nil input yields nil.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
