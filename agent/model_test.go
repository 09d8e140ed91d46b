package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentkit/core"
	"github.com/hupe1980/agentkit/model"
	"github.com/hupe1980/agentkit/tool"
)

// mockModel records call expectations for request-shape assertions.
type mockModel struct{ mock.Mock }

func (m *mockModel) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*model.Response)
	return resp, args.Error(1)
}

func (m *mockModel) Info() model.Info {
	return model.Info{Name: "mock", Provider: "mock", SupportsTools: true}
}

var _ model.Model = (*mockModel)(nil)

func TestRun_RequestShape(t *testing.T) {
	temp, maxTokens := 0.3, 256

	llm := &mockModel{}
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(req model.Request) bool {
		return req.Model == "gpt-4o-mini" &&
			req.Temperature != nil && *req.Temperature == temp &&
			req.MaxTokens != nil && *req.MaxTokens == maxTokens &&
			len(req.Tools) == 1 && req.Tools[0].Function.Name == "add" &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == core.RoleSystem &&
			req.Messages[1].Content == "What is 2+3?"
	})).Return(model.NewTextResponse("5"), nil).Once()

	a := New("calc", llm, func(o *Options) {
		o.Model = "gpt-4o-mini"
		o.Temperature = &temp
		o.MaxTokens = &maxTokens
		o.Tools = []*tool.Definition{addTool()}
	})

	res := a.Run(context.Background(), "What is 2+3?")
	require.NoError(t, res.Err)
	assert.Equal(t, "5", res.Content)
	assert.Equal(t, "gpt-4o-mini", res.Model)

	llm.AssertExpectations(t)
}

func TestRun_NoToolsOmitsSchemas(t *testing.T) {
	llm := &mockModel{}
	llm.On("Generate", mock.Anything, mock.MatchedBy(func(req model.Request) bool {
		return req.Tools == nil && req.Temperature == nil && req.MaxTokens == nil
	})).Return(model.NewTextResponse("hi"), nil).Once()

	res := New("plain", llm).Run(context.Background(), "hello")
	require.NoError(t, res.Err)

	llm.AssertNumberOfCalls(t, "Generate", 1)
}
