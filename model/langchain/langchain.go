// Package langchain adapts any langchaingo llms.Model (Ollama, Mistral,
// Bedrock, ...) to the agentkit model.Model interface.
package langchain

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentkit/core"
	"github.com/hupe1980/agentkit/model"
	"github.com/tmc/langchaingo/llms"
)

// Options configures the langchaingo adapter.
type Options struct {
	Model    string // Passed via llms.WithModel when set
	Name     string // Reported by Info; defaults to Model or "langchain"
	Provider string // Reported by Info; defaults to "langchain"
}

// Model wraps an llms.Model.
type Model struct {
	llm  llms.Model
	opts Options
}

// NewModel wraps llm.
func NewModel(llm llms.Model, optFns ...func(o *Options)) *Model {
	opts := Options{Provider: "langchain"}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Name == "" {
		opts.Name = opts.Model
	}
	if opts.Name == "" {
		opts.Name = "langchain"
	}
	return &Model{llm: llm, opts: opts}
}

// Unwrap returns the underlying llms.Model.
func (m *Model) Unwrap() llms.Model { return m.llm }

// Generate performs one GenerateContent call.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	resp, err := m.llm.GenerateContent(ctx, buildMessages(req.Messages), m.callOptions(req)...)
	if err != nil {
		return nil, fmt.Errorf("langchain generate failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, model.ErrNoChoices
	}

	out := &model.Response{ID: core.NewID(), Model: m.opts.Name}
	for i, choice := range resp.Choices {
		msg := core.Message{Role: core.RoleAssistant, Content: choice.Content}
		for _, tc := range choice.ToolCalls {
			if tc.FunctionCall == nil {
				continue
			}
			id := tc.ID
			if id == "" {
				id = "call_" + core.NewShortID(12)
			}
			msg.ToolCalls = append(msg.ToolCalls, core.NewToolCall(id, tc.FunctionCall.Name, tc.FunctionCall.Arguments))
		}
		finish := choice.StopReason
		if finish == "" && msg.HasToolCalls() {
			finish = model.FinishReasonToolCalls
		}
		out.Choices = append(out.Choices, model.Choice{Index: i, Message: msg, FinishReason: finish})
	}

	if info := resp.Choices[0].GenerationInfo; info != nil {
		out.Usage = extractUsage(info)
	}

	return out, nil
}

func (m *Model) callOptions(req model.Request) []llms.CallOption {
	var opts []llms.CallOption

	modelID := m.opts.Model
	if req.Model != "" {
		modelID = req.Model
	}
	if modelID != "" {
		opts = append(opts, llms.WithModel(modelID))
	}
	if req.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*req.Temperature))
	}
	if req.MaxTokens != nil {
		opts = append(opts, llms.WithMaxTokens(*req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		tools := make([]llms.Tool, 0, len(req.Tools))
		for _, def := range req.Tools {
			tools = append(tools, llms.Tool{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        def.Function.Name,
					Description: def.Function.Description,
					Parameters:  def.Function.Parameters,
				},
			})
		}
		opts = append(opts, llms.WithTools(tools))
	}

	return opts
}

// buildMessages converts canonical messages into langchaingo message content.
func buildMessages(msgs []core.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case core.RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, msg.Content))
		case core.RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, msg.Content))
		case core.RoleAssistant:
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if msg.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextContent{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
			out = append(out, mc)
		case core.RoleTool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: msg.ToolCallID,
					Name:       msg.Name,
					Content:    msg.Content,
				}},
			})
		default:
			out = append(out, llms.TextParts(llms.ChatMessageTypeGeneric, msg.Content))
		}
	}
	return out
}

// extractUsage normalizes the provider specific GenerationInfo token keys.
func extractUsage(info map[string]any) *model.TokenUsage {
	prompt := firstInt(info, "PromptTokens", "InputTokens", "input_tokens")
	completion := firstInt(info, "CompletionTokens", "OutputTokens", "output_tokens")
	total := firstInt(info, "TotalTokens", "total_tokens")
	if total == 0 {
		total = prompt + completion
	}
	if prompt == 0 && completion == 0 && total == 0 {
		return nil
	}
	return &model.TokenUsage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total}
}

func firstInt(info map[string]any, keys ...string) int {
	for _, k := range keys {
		switch v := info[k].(type) {
		case int:
			if v > 0 {
				return v
			}
		case int32:
			if v > 0 {
				return int(v)
			}
		case int64:
			if v > 0 {
				return int(v)
			}
		case float64:
			if v > 0 {
				return int(v)
			}
		}
	}
	return 0
}

// Info returns metadata describing the wrapped model.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Name, Provider: m.opts.Provider, SupportsTools: true}
}

var _ model.Model = (*Model)(nil)
