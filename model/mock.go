package model

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedModel is a lightweight in‑memory Model useful for tests & examples.
// It replays queued steps in order and records every request it receives.
// When the script is exhausted the last step repeats.
type ScriptedModel struct {
	mu       sync.Mutex
	info     Info
	steps    []scriptStep
	next     int
	requests []Request
}

type scriptStep struct {
	resp *Response
	err  error
	fn   func(req Request) (*Response, error)
}

// NewScriptedModel constructs a ScriptedModel with tool support enabled.
func NewScriptedModel(name string) *ScriptedModel {
	return &ScriptedModel{info: Info{Name: name, Provider: "scripted", SupportsTools: true}}
}

// Respond queues a canned response.
func (m *ScriptedModel) Respond(resp *Response) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, scriptStep{resp: resp})
	return m
}

// RespondText queues a plain text response.
func (m *ScriptedModel) RespondText(content string) *ScriptedModel {
	return m.Respond(NewTextResponse(content))
}

// Fail queues an error.
func (m *ScriptedModel) Fail(err error) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, scriptStep{err: err})
	return m
}

// RespondWith queues a function computing the response from the request.
func (m *ScriptedModel) RespondWith(fn func(req Request) (*Response, error)) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, scriptStep{fn: fn})
	return m
}

// Generate implements Model.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	if len(m.steps) == 0 {
		m.mu.Unlock()
		return nil, fmt.Errorf("scripted model %q has no responses", m.info.Name)
	}
	idx := m.next
	if idx >= len(m.steps) {
		idx = len(m.steps) - 1
	} else {
		m.next++
	}
	step := m.steps[idx]
	m.mu.Unlock()

	switch {
	case step.fn != nil:
		return step.fn(req)
	case step.err != nil:
		return nil, step.err
	default:
		return step.resp, nil
	}
}

// Requests returns a copy of all recorded requests.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns how many times Generate was invoked.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }

// FuncModel adapts a plain function to the Model interface.
type FuncModel func(ctx context.Context, req Request) (*Response, error)

// Generate implements Model.
func (f FuncModel) Generate(ctx context.Context, req Request) (*Response, error) { return f(ctx, req) }

// Info implements Model.
func (f FuncModel) Info() Info { return Info{Name: "func", Provider: "func", SupportsTools: true} }

var (
	_ Model = (*ScriptedModel)(nil)
	_ Model = FuncModel(nil)
)
