package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentkit/internal/util"
)

// InstructionContext is the data available when an agent's system prompt is
// resolved at the start of a run.
type InstructionContext struct {
	Agent    string
	Prompt   string
	Metadata map[string]any
}

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from agent metadata, the prompt, the environment, etc.
type Provider interface {
	Instruction(ctx context.Context, ic *InstructionContext) (string, error)
}

// InstructionFunc is a functional adapter to allow ordinary functions to be used as Providers.
type InstructionFunc func(ctx context.Context, ic *InstructionContext) (string, error)

// Instruction implements Provider.
func (f InstructionFunc) Instruction(ctx context.Context, ic *InstructionContext) (string, error) {
	return f(ctx, ic)
}

// Instruction represents either a static instruction string or a dynamic provider.
// The resolved text is rendered as a text/template against the agent metadata,
// so "You are {{.company}}'s support agent." works for static text too.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(ctx context.Context, ic *InstructionContext) (string, error)) Instruction {
	return Instruction{provider: InstructionFunc(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// IsZero reports whether neither text nor provider is set.
func (i Instruction) IsZero() bool { return i.provider == nil && i.text == "" }

// Resolve returns the instruction text, invoking the provider if needed and
// rendering template markers against ic.Metadata.
func (i Instruction) Resolve(ctx context.Context, ic *InstructionContext) (string, error) {
	if ic == nil {
		ic = &InstructionContext{}
	}

	text := i.text
	if i.provider != nil {
		var err error
		if text, err = i.provider.Instruction(ctx, ic); err != nil {
			return "", fmt.Errorf("instruction provider: %w", err)
		}
	}

	rendered, err := util.RenderTemplate(text, ic.Metadata)
	if err != nil {
		return "", fmt.Errorf("render instruction: %w", err)
	}

	return rendered, nil
}
