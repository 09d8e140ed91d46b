package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agentkit/logging"
)

// DefaultWorkers is the worker pool width of RunParallel.
const DefaultWorkers = 4

// ParallelDivider separates per-member blocks in a parallel TeamResult.
const ParallelDivider = "\n\n---\n\n"

// Mode selects a team orchestration strategy.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
	ModeHandoff    Mode = "handoff"
)

// Condition decides whether a member applies to a prompt.
type Condition func(prompt string) bool

// Member is an Agent plus its role in a team.
type Member struct {
	Agent     *Agent
	Role      string
	Condition Condition // nil applies to every prompt
}

// Label returns the role, or the agent name when no role is set.
func (m Member) Label() string {
	if m.Role != "" {
		return m.Role
	}
	return m.Agent.Name()
}

// Applies reports whether the member accepts the prompt.
func (m Member) Applies(prompt string) bool {
	return m.Condition == nil || m.Condition(prompt)
}

// TeamResult aggregates the member runs of one team invocation.
type TeamResult struct {
	Results    []*Result `json:"results"`
	Content    string    `json:"content"`
	AgentsUsed []string  `json:"agents_used"`
}

// TeamOptions configures a Team.
type TeamOptions struct {
	Workers int
	Logger  logging.Logger
}

// Team composes agents for sequential, parallel or handoff execution.
//
// Each member must own its Agent: parallel runs execute members concurrently
// and rely on members not sharing memory.
type Team struct {
	mu      sync.RWMutex
	members []Member
	workers int
	logger  logging.Logger
}

// NewTeam creates an empty team.
func NewTeam(optFns ...func(o *TeamOptions)) *Team {
	opts := TeamOptions{Workers: DefaultWorkers}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Team{workers: opts.Workers, logger: logging.Ensure(opts.Logger)}
}

// Add appends a member. A nil condition applies to every prompt.
//
// Each member must be a distinct Agent: an agent added twice would run on
// two goroutines in parallel mode and interleave writes to its memory. A
// repeated agent is therefore ignored and logged.
func (t *Team) Add(a *Agent, role string, cond Condition) *Team {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range t.members {
		if m.Agent == a {
			t.logger.Warn("team.member.duplicate", "agent", a.Name(), "role", role)
			return t
		}
	}
	t.members = append(t.members, Member{Agent: a, Role: role, Condition: cond})
	return t
}

// Members returns the members in registration order.
func (t *Team) Members() []Member {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Member, len(t.members))
	copy(out, t.members)
	return out
}

// Run dispatches to the strategy named by mode.
func (t *Team) Run(ctx context.Context, mode Mode, prompt string, optFns ...func(o *RunOptions)) (*TeamResult, error) {
	switch mode {
	case ModeSequential, "":
		return t.RunSequential(ctx, prompt, optFns...), nil
	case ModeParallel:
		return t.RunParallel(ctx, prompt, optFns...), nil
	case ModeHandoff:
		return t.RunHandoff(ctx, prompt, optFns...), nil
	default:
		return nil, fmt.Errorf("unknown team mode %q", mode)
	}
}

// RunSequential runs applicable members in registration order. Every member
// after the first receives the initial context plus the previous member's
// output labeled with its role. The final content is the last member's.
func (t *Team) RunSequential(ctx context.Context, prompt string, optFns ...func(o *RunOptions)) *TeamResult {
	opts := runOptions(optFns)
	out := &TeamResult{Results: []*Result{}, AgentsUsed: []string{}}
	current := opts.Context

	for _, m := range t.Members() {
		if !m.Applies(prompt) {
			t.logger.Debug("team.member.skipped", "mode", string(ModeSequential), "member", m.Label())
			continue
		}

		full := current
		if n := len(out.Results); n > 0 {
			full += fmt.Sprintf("\n\nPrevious agent (%s) output:\n%s", out.AgentsUsed[n-1], out.Results[n-1].Content)
		}

		res := m.Agent.Run(ctx, prompt, WithAdditionalContext(full))
		out.Results = append(out.Results, res)
		out.AgentsUsed = append(out.AgentsUsed, m.Label())
		current = full
	}

	if n := len(out.Results); n > 0 {
		out.Content = out.Results[n-1].Content
	}

	return out
}

// RunParallel runs all applicable members concurrently on a bounded worker
// pool (WithWorkers, default 4). Results are collected in completion order.
// Members whose run fails are dropped from the result without affecting
// their siblings. Content joins one "**role**: text" block per member.
func (t *Team) RunParallel(ctx context.Context, prompt string, optFns ...func(o *RunOptions)) *TeamResult {
	opts := runOptions(optFns)
	workers := opts.Workers
	if workers <= 0 {
		workers = t.workers
	}

	var eligible []Member
	for _, m := range t.Members() {
		if m.Applies(prompt) {
			eligible = append(eligible, m)
		}
	}

	type outcome struct {
		label  string
		result *Result
		err    error
	}

	outcomes := make(chan outcome, len(eligible))
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for _, m := range eligible {
		wg.Add(1)
		go func(m Member) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := t.runMember(ctx, m, prompt, opts.Context)
			outcomes <- outcome{label: m.Label(), result: res, err: err}
		}(m)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	out := &TeamResult{Results: []*Result{}, AgentsUsed: []string{}}
	blocks := make([]string, 0, len(eligible))

	for o := range outcomes {
		if o.err != nil {
			t.logger.Warn("team.parallel.member_failed", "member", o.label, "error", o.err.Error())
			continue
		}
		out.Results = append(out.Results, o.result)
		out.AgentsUsed = append(out.AgentsUsed, o.label)
		blocks = append(blocks, fmt.Sprintf("**%s**: %s", o.label, o.result.Content))
	}

	out.Content = strings.Join(blocks, ParallelDivider)

	return out
}

// RunHandoff runs the first member whose condition accepts the prompt. A
// member without a condition never matches explicitly; when nothing matches
// the first registered member runs. An empty team yields an empty result.
func (t *Team) RunHandoff(ctx context.Context, prompt string, optFns ...func(o *RunOptions)) *TeamResult {
	opts := runOptions(optFns)
	members := t.Members()

	if len(members) == 0 {
		return &TeamResult{Results: []*Result{}, AgentsUsed: []string{}}
	}

	selected := members[0]
	for _, m := range members {
		if m.Condition != nil && m.Condition(prompt) {
			selected = m
			break
		}
	}

	t.logger.Info("team.handoff.selected", "member", selected.Label())

	res := selected.Agent.Run(ctx, prompt, WithAdditionalContext(opts.Context))

	return &TeamResult{
		Results:    []*Result{res},
		Content:    res.Content,
		AgentsUsed: []string{selected.Label()},
	}
}

// stackLogger is implemented by logging.StructuredLogger.
type stackLogger interface {
	ErrorWithStack(err error, msg string, args ...any)
}

// runMember runs one member and reports a failed run (or a panic) as error.
func (t *Team) runMember(ctx context.Context, m Member, prompt, extra string) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("member %s panicked: %v", m.Label(), r)
			if sl, ok := t.logger.(stackLogger); ok {
				sl.ErrorWithStack(err, "team.member.panic", "member", m.Label())
			} else {
				t.logger.Error("team.member.panic", "member", m.Label(), "error", err)
			}
		}
	}()

	res = m.Agent.Run(ctx, prompt, WithAdditionalContext(extra))
	if res.StopReason == StopError {
		if res.Err != nil {
			return nil, res.Err
		}
		return nil, fmt.Errorf("member %s failed: %s", m.Label(), res.Content)
	}

	return res, nil
}
