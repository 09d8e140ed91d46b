package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentkit/model"
)

// Registry maps tool names to definitions. Names are unique: registering a
// definition under an existing name replaces it in place, so the emission
// order of Schemas stays stable across calls.
//
// Concurrency: protected by RWMutex.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Definition
	order []string
}

// NewRegistry creates a registry pre-populated with defs.
func NewRegistry(defs ...*Definition) *Registry {
	r := &Registry{tools: make(map[string]*Definition)}
	r.Register(defs...)
	return r
}

// Register inserts or overwrites definitions by name. Nil definitions are ignored.
func (r *Registry) Register(defs ...*Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range defs {
		if d == nil {
			continue
		}
		if _, exists := r.tools[d.name]; !exists {
			r.order = append(r.order, d.name)
		}
		r.tools[d.name] = d
	}
}

// RegisterFunc adapts a bare function (see FromFunc) and registers it.
func (r *Registry) RegisterFunc(fn Func) *Definition {
	d := FromFunc(fn)
	r.Register(d)
	return d
}

// Unregister removes a tool. It reports whether the tool existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return false
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.tools[name]
	return d, ok
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// List returns definitions in registration order.
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Definition, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.tools[n])
	}
	return out
}

// Execute runs the named tool and renders its result as text. Unknown names
// yield an error wrapping ErrToolNotFound; tool faults are *ToolError.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	d, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	result, err := d.Call(ctx, args)
	if err != nil {
		return "", err
	}

	return Stringify(result), nil
}

// Schemas converts every definition into the model collaborator's tool
// format. An empty registry yields nil so the request omits tool calling
// entirely.
func (r *Registry) Schemas() []model.ToolDefinition {
	defs := r.List()
	if len(defs) == 0 {
		return nil
	}
	out := make([]model.ToolDefinition, len(defs))
	for i, d := range defs {
		out[i] = d.Schema()
	}
	return out
}
