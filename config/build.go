package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/agentkit/agent"
	"github.com/hupe1980/agentkit/knowledge"
	"github.com/hupe1980/agentkit/logging"
	"github.com/hupe1980/agentkit/memory"
	"github.com/hupe1980/agentkit/model"
	"github.com/hupe1980/agentkit/sandbox"
	"github.com/hupe1980/agentkit/tool"
	"github.com/hupe1980/agentkit/tool/builtin"
)

// ErrNoTeam is returned by Bundle.RunTeam when the configuration has no team.
var ErrNoTeam = errors.New("no team configured")

// ModelFactory creates the model behind a models entry.
type ModelFactory func(name string, mc ModelConfig) (model.Model, error)

// BuildOptions configures Build.
type BuildOptions struct {
	// Tools are custom tools agents may reference by name in addition to
	// the built-in ones. Custom tools win on name clashes.
	Tools  []*tool.Definition
	Logger logging.Logger
}

// Bundle holds everything Build resolved from a configuration.
type Bundle struct {
	Agents map[string]*agent.Agent
	// Order lists agent names as they appear in the file.
	Order []string
	Team  *agent.Team
	Mode  agent.Mode
	// Sandboxes are keyed by agent name. Start them before running.
	Sandboxes map[string]sandbox.Provider
}

// Agent returns the agent called name.
func (b *Bundle) Agent(name string) (*agent.Agent, error) {
	a, ok := b.Agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, name)
	}
	return a, nil
}

// Start starts every sandbox.
func (b *Bundle) Start(ctx context.Context) error {
	for name, sb := range b.Sandboxes {
		if err := sb.Start(ctx); err != nil {
			return fmt.Errorf("agent %q: %w", name, err)
		}
	}
	return nil
}

// Stop stops every sandbox and reports all failures.
func (b *Bundle) Stop(ctx context.Context) error {
	var errs []error
	for name, sb := range b.Sandboxes {
		if err := sb.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("agent %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// RunTeam runs the configured team in its configured mode.
func (b *Bundle) RunTeam(ctx context.Context, prompt string, optFns ...func(o *agent.RunOptions)) (*agent.TeamResult, error) {
	if b.Team == nil {
		return nil, ErrNoTeam
	}
	return b.Team.Run(ctx, b.Mode, prompt, optFns...)
}

// Build resolves cfg into agents and an optional team. A nil factory uses
// DefaultFactory. Models are created once per models entry and shared by
// the agents referencing them.
func Build(cfg *Config, factory ModelFactory, optFns ...func(o *BuildOptions)) (*Bundle, error) {
	opts := BuildOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := logging.Ensure(opts.Logger)

	if factory == nil {
		factory = DefaultFactory
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	custom := make(map[string]*tool.Definition, len(opts.Tools))
	for _, t := range opts.Tools {
		custom[t.Name()] = t
	}

	b := &Bundle{
		Agents:    make(map[string]*agent.Agent, len(cfg.Agents)),
		Sandboxes: map[string]sandbox.Provider{},
	}

	models := map[string]model.Model{}
	for _, ac := range cfg.Agents {
		key := ac.modelKey()
		llm, ok := models[key]
		if !ok {
			var err error
			if llm, err = factory(key, cfg.Models[key]); err != nil {
				return nil, fmt.Errorf("model %q: %w", key, err)
			}
			models[key] = llm
		}

		a, sb, err := buildAgent(ac, llm, cfg.Models[key], custom, logger)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", ac.Name, err)
		}

		b.Agents[ac.Name] = a
		b.Order = append(b.Order, ac.Name)
		if sb != nil {
			b.Sandboxes[ac.Name] = sb
		}
	}

	if cfg.Team != nil {
		mode, err := parseMode(cfg.Team.Mode)
		if err != nil {
			return nil, err
		}

		b.Mode = mode
		b.Team = agent.NewTeam(func(o *agent.TeamOptions) {
			o.Workers = cfg.Team.Workers
			o.Logger = logger
		})
		for _, m := range cfg.Team.Members {
			b.Team.Add(b.Agents[m.Agent], m.Role, KeywordCondition(m.Keywords))
		}
	}

	logger.Info("config.build", "agents", len(b.Agents), "team", b.Team != nil, "mode", string(b.Mode))

	return b, nil
}

func buildAgent(ac AgentConfig, llm model.Model, mc ModelConfig, custom map[string]*tool.Definition, logger logging.Logger) (*agent.Agent, sandbox.Provider, error) {
	var sb sandbox.Provider
	if ac.Sandbox != nil {
		sb = sandbox.NewLocal(func(o *sandbox.LocalOptions) {
			o.Config = *ac.Sandbox
			o.Logger = logger
		})
	}

	tools := make([]*tool.Definition, 0, len(ac.Tools)+1)
	for _, name := range ac.Tools {
		if t, ok := custom[name]; ok {
			tools = append(tools, t)
			continue
		}
		t, err := builtin.New(name, func(o *builtin.Options) {
			o.Sandbox = sb
			o.Logger = logger
		})
		if err != nil {
			return nil, nil, err
		}
		tools = append(tools, t)
	}
	if len(ac.Knowledge) > 0 {
		tools = append(tools, knowledge.New(ac.Knowledge...).ToTool(""))
	}

	var mem memory.Memory
	if ac.Memory != nil {
		var err error
		if mem, err = memory.New(ac.Memory.Type, ac.Memory.Limit); err != nil {
			return nil, nil, err
		}
	}

	a := agent.New(ac.Name, llm, func(o *agent.Options) {
		o.Model = mc.Model
		if ac.SystemPrompt != "" {
			o.Instruction = agent.NewInstructionFromText(ac.SystemPrompt)
		}
		o.MaxTurns = ac.MaxTurns
		o.Temperature = ac.Temperature
		o.MaxTokens = ac.MaxTokens
		o.Memory = mem
		o.Tools = tools
		o.Metadata = ac.Metadata
		o.Logger = logger
	})

	return a, sb, nil
}

func parseMode(s string) (agent.Mode, error) {
	switch m := agent.Mode(strings.ToLower(s)); m {
	case "":
		return agent.ModeSequential, nil
	case agent.ModeSequential, agent.ModeParallel, agent.ModeHandoff:
		return m, nil
	default:
		return "", fmt.Errorf("team: unknown mode %q", s)
	}
}

// KeywordCondition returns a condition matching prompts that contain any of
// keywords, ignoring case. No keywords yields nil (applies to everything).
func KeywordCondition(keywords []string) agent.Condition {
	if len(keywords) == 0 {
		return nil
	}

	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}

	return func(prompt string) bool {
		p := strings.ToLower(prompt)
		for _, k := range lowered {
			if strings.Contains(p, k) {
				return true
			}
		}
		return false
	}
}
