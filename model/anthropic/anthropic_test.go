package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/agentkit/core"
	"github.com/hupe1980/agentkit/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, status int, body string, captured *map[string]any) *Model {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewModel(func(o *Options) {
		o.APIKey = "test-key"
		o.BaseURL = srv.URL + "/"
		o.MaxRetries = 0
	})
}

func TestGenerate_ToolUse(t *testing.T) {
	var captured map[string]any
	m := newTestModel(t, http.StatusOK, `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-3-5-sonnet-20241022",
		"content": [
			{"type": "text", "text": "Let me check."},
			{"type": "tool_use", "id": "toolu_1", "name": "lookup", "input": {"id": 7}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 11, "output_tokens": 4}
	}`, &captured)

	resp, err := m.Generate(context.Background(), model.Request{
		Messages: []core.Message{
			core.SystemMessage("You are terse."),
			core.UserMessage("find 7"),
			core.AssistantMessage("", core.NewToolCall("toolu_0", "lookup", `{"id":6}`), core.NewToolCall("toolu_9", "lookup", `not json`)),
			core.ToolResultMessage("toolu_0", "six"),
			core.ToolResultMessage("toolu_9", "nine"),
		},
		Tools: []model.ToolDefinition{{Type: "function", Function: model.FunctionDefinition{
			Name:        "lookup",
			Description: "Look up a record",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"id": map[string]any{"type": "integer"}},
				"required":   []string{"id"},
			},
		}}},
	})
	require.NoError(t, err)

	choice, ok := resp.First()
	require.True(t, ok)
	assert.Equal(t, "Let me check.", choice.Message.Content)
	assert.Equal(t, model.FinishReasonToolCalls, choice.FinishReason)
	require.Len(t, choice.Message.ToolCalls, 1)
	assert.Equal(t, "toolu_1", choice.Message.ToolCalls[0].ID)
	assert.JSONEq(t, `{"id":7}`, choice.Message.ToolCalls[0].Function.Arguments)
	assert.Equal(t, model.TokenUsage{PromptTokens: 11, CompletionTokens: 4, TotalTokens: 15}, *resp.Usage)

	system := captured["system"].([]any)
	assert.Equal(t, "You are terse.", system[0].(map[string]any)["text"])

	msgs := captured["messages"].([]any)
	require.Len(t, msgs, 3) // user, assistant, grouped tool results
	results := msgs[2].(map[string]any)
	assert.Equal(t, "user", results["role"])
	assert.Len(t, results["content"], 2)

	tools := captured["tools"].([]any)
	assert.Equal(t, "Look up a record", tools[0].(map[string]any)["description"])
}

func TestGenerate_AuthError(t *testing.T) {
	m := newTestModel(t, http.StatusUnauthorized, `{"type": "error", "error": {"type": "authentication_error", "message": "bad key"}}`, nil)

	_, err := m.Generate(context.Background(), model.Request{Messages: []core.Message{core.UserMessage("hi")}})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrAuthentication)
}

func TestNormalizeStopReason(t *testing.T) {
	assert.Equal(t, "stop", normalizeStopReason("end_turn"))
	assert.Equal(t, "stop", normalizeStopReason(""))
	assert.Equal(t, "length", normalizeStopReason("max_tokens"))
	assert.Equal(t, "tool_calls", normalizeStopReason("tool_use"))
	assert.Equal(t, "refusal", normalizeStopReason("refusal"))
}
