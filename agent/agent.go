package agent

import (
	"context"
	"iter"
	"maps"
	"sync/atomic"

	"github.com/hupe1980/agentkit/hook"
	"github.com/hupe1980/agentkit/logging"
	"github.com/hupe1980/agentkit/memory"
	"github.com/hupe1980/agentkit/model"
	"github.com/hupe1980/agentkit/tool"
)

// DefaultInstruction is the system prompt of agents configured without one.
const DefaultInstruction = "You are a helpful assistant."

// DefaultMaxTurns bounds the number of model round-trips per run.
const DefaultMaxTurns = 10

// Options configures an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// Model is the model identifier sent with every request. Empty leaves
	// the choice to the model adapter.
	Model       string
	Instruction Instruction
	Tools       []*tool.Definition
	Hooks       []hook.Hook
	// Memory holds prior conversation turns. Must not be shared with
	// another agent. Defaults to memory.NewUnlimited().
	Memory      memory.Memory
	MaxTurns    int
	Temperature *float64
	MaxTokens   *int
	Metadata    map[string]any
	Logger      logging.Logger
}

// Agent drives a bounded, tool-augmented conversation against a model.
//
// An Agent exclusively owns its tool registry, hook manager and memory. A
// single run is sequential: one in-flight model call, tools executed in the
// order the model requested them. Concurrent runs on the same Agent share
// its memory and are therefore not recommended.
type Agent struct {
	name        string
	llm         model.Model
	modelID     string
	instruction Instruction
	registry    *tool.Registry
	hooks       *hook.Manager
	memory      memory.Memory
	maxTurns    int
	temperature *float64
	maxTokens   *int
	metadata    map[string]any
	logger      logging.Logger
}

// New creates an agent with sensible defaults.
//
// The agent is initialized with:
//   - DefaultInstruction as system prompt
//   - DefaultMaxTurns turn budget
//   - Unlimited memory
//   - No temperature or max token override
func New(name string, llm model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Instruction: NewInstructionFromText(DefaultInstruction),
		MaxTurns:    DefaultMaxTurns,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Instruction.IsZero() {
		opts.Instruction = NewInstructionFromText(DefaultInstruction)
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	if opts.Memory == nil {
		opts.Memory = memory.NewUnlimited()
	}

	logger := logging.Ensure(opts.Logger)

	a := &Agent{
		name:        name,
		llm:         llm,
		modelID:     opts.Model,
		instruction: opts.Instruction,
		registry:    tool.NewRegistry(opts.Tools...),
		hooks:       hook.NewManager(logger),
		memory:      opts.Memory,
		maxTurns:    opts.MaxTurns,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		metadata:    maps.Clone(opts.Metadata),
		logger:      logger,
	}
	a.hooks.Add(opts.Hooks...)

	if a.metadata == nil {
		a.metadata = map[string]any{}
	}

	return a
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Model returns the model identifier reported in results. It falls back to
// the adapter's Info name when no identifier was configured.
func (a *Agent) Model() string {
	if a.modelID != "" || a.llm == nil {
		return a.modelID
	}
	return a.llm.Info().Name
}

// MaxTurns returns the turn budget per run.
func (a *Agent) MaxTurns() int { return a.maxTurns }

// Metadata returns a copy of the agent metadata.
func (a *Agent) Metadata() map[string]any { return maps.Clone(a.metadata) }

// Tools returns the agent's tool registry.
func (a *Agent) Tools() *tool.Registry { return a.registry }

// Hooks returns the agent's hook manager.
func (a *Agent) Hooks() *hook.Manager { return a.hooks }

// Memory returns the agent's conversation memory.
func (a *Agent) Memory() memory.Memory { return a.memory }

// AddTools registers additional tools.
func (a *Agent) AddTools(defs ...*tool.Definition) { a.registry.Register(defs...) }

// AddHooks registers additional hooks.
func (a *Agent) AddHooks(hooks ...hook.Hook) { a.hooks.Add(hooks...) }

// RunOptions configures a single run.
type RunOptions struct {
	// Context is appended to the system prompt under "Additional context:".
	Context string
	// Workers bounds Team.RunParallel concurrency. Ignored by Agent runs.
	Workers int
}

// WithAdditionalContext injects text into the system prompt of the run.
func WithAdditionalContext(text string) func(o *RunOptions) {
	return func(o *RunOptions) { o.Context = text }
}

// WithWorkers sets the worker pool width of Team.RunParallel.
func WithWorkers(n int) func(o *RunOptions) {
	return func(o *RunOptions) { o.Workers = n }
}

func runOptions(optFns []func(o *RunOptions)) RunOptions {
	opts := RunOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// Run executes the agent loop until a final answer, the turn budget or a
// model failure. It never panics on collaborator or tool faults and never
// returns a Go error: the Result carries StopReason and Err.
func (a *Agent) Run(ctx context.Context, prompt string, optFns ...func(o *RunOptions)) *Result {
	return a.execute(ctx, prompt, runOptions(optFns), nil)
}

// Stream executes the same loop as Run (hooks included) and yields events as
// each step completes: tool_call then tool_result per invocation, text and
// done on completion, error on failure. The sequence can be consumed once;
// ranging over it again yields nothing. Breaking out of the range stops the
// run before the next model call or tool execution.
func (a *Agent) Stream(ctx context.Context, prompt string, optFns ...func(o *RunOptions)) iter.Seq[Event] {
	opts := runOptions(optFns)
	var consumed atomic.Bool

	return func(yield func(Event) bool) {
		if !consumed.CompareAndSwap(false, true) {
			return
		}
		a.execute(ctx, prompt, opts, yield)
	}
}
