package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/hupe1980/agentkit/core"
	"github.com/hupe1980/agentkit/hook"
	"github.com/hupe1980/agentkit/model"
	"github.com/hupe1980/agentkit/tool"
)

// ErrStreamClosed is the Result.Err of a streamed run whose consumer stopped
// iterating before the run finished.
var ErrStreamClosed = errors.New("stream closed by consumer")

// runLogger is implemented by logging.StructuredLogger. Plain loggers get the
// same information as debug events.
type runLogger interface {
	LogToolCall(tool string, dur time.Duration, success bool, err error)
	LogModelCall(model string, tokens int, dur time.Duration, success bool, err error)
	LogRun(stopReason string, turns, toolCalls int, dur time.Duration)
}

// run is the mutable state of one execution of the loop.
type run struct {
	agent    *Agent
	ctx      context.Context
	emit     func(Event) bool
	start    time.Time
	messages []core.Message
	produced []core.Message // messages created by this run, persisted on completion
	result   *Result
}

// execute is the single loop behind Run and Stream. emit is nil for Run.
//
// States: awaiting model -> handling tool calls -> awaiting model ... until
// done (final text), error (model failure / cancellation) or max turns.
func (a *Agent) execute(ctx context.Context, prompt string, opts RunOptions, emit func(Event) bool) *Result {
	if ctx == nil {
		ctx = context.Background()
	}

	r := &run{
		agent: a,
		ctx:   ctx,
		emit:  emit,
		start: time.Now(),
		result: &Result{
			RunID: core.NewID(),
			Agent: a.name,
			Model: a.Model(),
		},
	}

	a.logger.Info("agent.run.start", "agent", a.name, "run_id", r.result.RunID, "max_turns", a.maxTurns)

	if err := r.seed(prompt, opts.Context); err != nil {
		return r.fail(0, 0, err)
	}

	budget := core.NewTurnBudget(a.maxTurns)
	for budget.Consume() == nil {
		turn := budget.Used() - 1

		if err := ctx.Err(); err != nil {
			return r.fail(turn, turn+1, err)
		}

		resp, err := r.callModel(turn)
		if err != nil {
			return r.fail(turn, turn+1, err)
		}

		choice, _ := resp.First()
		assistant := choice.Message.Clone()
		assistant.Role = core.RoleAssistant
		r.append(assistant)

		if choice.FinishReason == model.FinishReasonToolCalls || assistant.HasToolCalls() {
			if err := r.handleToolCalls(turn, assistant.ToolCalls); err != nil {
				return r.fail(turn, turn+1, err)
			}
			continue
		}

		return r.complete(turn, assistant.Content)
	}

	return r.exhausted()
}

// seed builds [system(+context), prior non-system memory..., user prompt].
func (r *run) seed(prompt, extra string) error {
	a := r.agent

	system, err := a.instruction.Resolve(r.ctx, &InstructionContext{Agent: a.name, Prompt: prompt, Metadata: a.metadata})
	if err != nil {
		return err
	}
	if extra != "" {
		system += "\n\nAdditional context:\n" + extra
	}

	prior := a.memory.Messages()
	r.messages = make([]core.Message, 0, len(prior)+2)
	r.messages = append(r.messages, core.SystemMessage(system))
	for _, m := range prior {
		if !m.IsSystem() {
			r.messages = append(r.messages, m)
		}
	}

	r.append(core.UserMessage(prompt))

	return nil
}

func (r *run) append(m core.Message) {
	r.messages = append(r.messages, m)
	r.produced = append(r.produced, m.Clone())
}

// callModel runs the pre/post model hooks around one Generate call.
func (r *run) callModel(turn int) (*model.Response, error) {
	a := r.agent

	pre := a.hooks.Run(r.ctx, hook.EventPreModelCall, &hook.Context{
		Agent:    a.name,
		Turn:     turn,
		Messages: core.CloneMessages(r.messages),
		Metadata: maps.Clone(a.metadata),
	})
	if pre.ModifiedMessages != nil {
		r.messages = core.CloneMessages(pre.ModifiedMessages)
	}

	req := model.Request{
		Model:       a.modelID,
		Messages:    core.CloneMessages(r.messages),
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		Tools:       a.registry.Schemas(),
	}

	start := time.Now()
	resp, err := r.generate(req)
	if err == nil {
		if _, ok := resp.First(); !ok {
			err = model.ErrNoChoices
		}
	}

	tokens := 0
	if err == nil && resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	if rl, ok := a.logger.(runLogger); ok {
		rl.LogModelCall(r.result.Model, tokens, time.Since(start), err == nil, err)
	} else {
		a.logger.Debug("agent.model.call", "agent", a.name, "turn", turn, "duration", time.Since(start), "error", err)
	}

	if err != nil {
		return nil, err
	}

	r.result.Usage.Add(resp.Usage)

	a.hooks.Run(r.ctx, hook.EventPostModelCall, &hook.Context{
		Agent:    a.name,
		Turn:     turn,
		Response: resp,
		Metadata: maps.Clone(a.metadata),
	})

	return resp, nil
}

// generate calls the model and converts an adapter panic into an error.
func (r *run) generate(req model.Request) (resp *model.Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			resp, err = nil, fmt.Errorf("model panicked: %v", p)
		}
	}()

	return r.agent.llm.Generate(r.ctx, req)
}

// handleToolCalls resolves every requested invocation in order. Every call
// gets exactly one tool message, whether it ran, was denied or failed.
func (r *run) handleToolCalls(turn int, calls []core.ToolCall) error {
	a := r.agent

	for _, tc := range calls {
		if err := r.ctx.Err(); err != nil {
			return err
		}

		r.result.ToolCalls++
		name := tc.Function.Name

		args, argsErr := parseArguments(tc.Function.Arguments)
		if argsErr != nil {
			a.logger.Warn("agent.tool.args_invalid", "agent", a.name, "tool", name, "call_id", tc.ID, "error", argsErr.Error())
		}

		if !r.send(Event{Type: EventToolCall, ToolName: name, ToolCallID: tc.ID, ToolArgs: maps.Clone(args), Turn: turn}) {
			return ErrStreamClosed
		}

		pre := a.hooks.Run(r.ctx, hook.EventPreToolUse, &hook.Context{
			Agent:      a.name,
			Turn:       turn,
			ToolName:   name,
			ToolCallID: tc.ID,
			ToolArgs:   maps.Clone(args),
			ArgsError:  argsErr,
			Metadata:   maps.Clone(a.metadata),
		})

		var output string
		if !pre.Allowed() {
			reason := pre.Reason
			if reason == "" {
				reason = "blocked by hook"
			}
			output = "Tool execution denied: " + reason
			a.logger.Info("agent.tool.denied", "agent", a.name, "tool", name, "reason", reason)
		} else {
			if pre.ModifiedArgs != nil {
				args = pre.ModifiedArgs
			}
			output = r.executeTool(turn, name, args)
		}

		a.hooks.Run(r.ctx, hook.EventPostToolUse, &hook.Context{
			Agent:      a.name,
			Turn:       turn,
			ToolName:   name,
			ToolCallID: tc.ID,
			ToolArgs:   maps.Clone(args),
			ArgsError:  argsErr,
			ToolResult: output,
			Metadata:   maps.Clone(a.metadata),
		})

		r.append(core.ToolResultMessage(tc.ID, output))

		if !r.send(Event{Type: EventToolResult, Content: output, ToolName: name, ToolCallID: tc.ID, Turn: turn}) {
			return ErrStreamClosed
		}

		if err := r.ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}

// executeTool converts every tool fault into text the model can react to.
func (r *run) executeTool(turn int, name string, args map[string]any) string {
	a := r.agent

	if !a.registry.Has(name) {
		a.logger.Warn("agent.tool.unknown", "agent", a.name, "turn", turn, "tool", name)
		return fmt.Sprintf("Error: Unknown tool '%s'", name)
	}

	start := time.Now()
	out, err := a.registry.Execute(r.ctx, name, args)

	if rl, ok := a.logger.(runLogger); ok {
		rl.LogToolCall(name, time.Since(start), err == nil, err)
	} else {
		a.logger.Debug("agent.tool.call", "agent", a.name, "turn", turn, "tool", name, "duration", time.Since(start), "error", err)
	}

	if err != nil {
		detail := err.Error()
		var toolErr *tool.ToolError
		if errors.As(err, &toolErr) {
			detail = toolErr.Message
		}
		return fmt.Sprintf("Error executing %s: %s", name, detail)
	}

	return out
}

// complete persists the run's messages and fires on-complete.
func (r *run) complete(turn int, content string) *Result {
	a := r.agent

	for _, m := range r.produced {
		a.memory.Add(m)
	}

	a.hooks.Run(r.ctx, hook.EventOnComplete, &hook.Context{
		Agent:    a.name,
		Turn:     turn,
		Content:  content,
		Messages: core.CloneMessages(r.messages),
		Metadata: maps.Clone(a.metadata),
	})

	res := r.finish(StopComplete, content, turn+1, nil)

	if r.send(Event{Type: EventText, Content: content, Turn: turn}) {
		r.send(Event{Type: EventDone, Content: content, Turn: turn, Result: res})
	}

	return res
}

// exhausted returns the most recent assistant text as best-effort answer.
func (r *run) exhausted() *Result {
	content := MaxTurnsFallback
	for i := len(r.messages) - 1; i >= 0; i-- {
		m := r.messages[i]
		if m.Role == core.RoleAssistant && strings.TrimSpace(m.Content) != "" {
			content = m.Content
			break
		}
	}

	turns := r.agent.maxTurns
	r.agent.logger.Warn("agent.run.max_turns", "agent", r.agent.name, "turns", turns)

	res := r.finish(StopMaxTurns, content, turns, nil)
	r.send(Event{Type: EventDone, Content: content, Turn: turns, Result: res})

	return res
}

// fail terminates the run with StopError and fires on-error hooks, except
// when the stream consumer walked away.
func (r *run) fail(turn, turns int, err error) *Result {
	a := r.agent

	if !errors.Is(err, ErrStreamClosed) {
		a.logger.Error("agent.run.error", "agent", a.name, "turn", turn, "error", err.Error())
		a.hooks.Run(r.ctx, hook.EventOnError, &hook.Context{
			Agent:    a.name,
			Turn:     turn,
			Err:      err,
			Metadata: maps.Clone(a.metadata),
		})
	}

	res := r.finish(StopError, "Error: "+err.Error(), turns, err)
	r.send(Event{Type: EventError, Content: err.Error(), Turn: turn, Result: res})

	return res
}

func (r *run) finish(reason StopReason, content string, turns int, err error) *Result {
	res := r.result
	res.StopReason = reason
	res.Content = content
	res.Turns = turns
	res.Messages = core.CloneMessages(r.messages)
	res.Err = err

	if rl, ok := r.agent.logger.(runLogger); ok {
		rl.LogRun(string(reason), turns, res.ToolCalls, time.Since(r.start))
	} else {
		r.agent.logger.Info("agent.run.end", "agent", r.agent.name, "run_id", res.RunID, "stop_reason", string(reason), "turns", turns, "tool_calls", res.ToolCalls)
	}

	return res
}

// send emits an event when streaming. It reports false once the consumer
// stopped iterating; later sends are dropped.
func (r *run) send(ev Event) bool {
	if r.emit == nil {
		return true
	}
	if !r.emit(ev) {
		r.emit = func(Event) bool { return false }
		return false
	}
	return true
}

// parseArguments decodes a tool call payload. Anything that is not a JSON
// object degrades to an empty argument set plus the decode error.
func parseArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}, fmt.Errorf("invalid tool arguments: %w", err)
	}
	if args == nil {
		return map[string]any{}, nil
	}

	return args, nil
}
