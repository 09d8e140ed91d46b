// Package config loads agent and team definitions from YAML.
//
// A file names model endpoints, agents (prompt, turn budget, sampling,
// memory policy, built-in tools, knowledge, sandbox) and optionally a team
// composed from those agents. ${VAR} references are expanded from the
// environment before parsing.
//
//	models:
//	  default:
//	    provider: openai
//	    model: gpt-4o-mini
//	    api_key: ${OPENAI_API_KEY}
//	agents:
//	  - name: researcher
//	    system_prompt: You research topics thoroughly.
//	    max_turns: 5
//	    tools: [web_fetch]
//	team:
//	  mode: sequential
//	  members:
//	    - agent: researcher
//	      role: research
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentkit/knowledge"
	"github.com/hupe1980/agentkit/sandbox"
)

// DefaultModel is the model key agents use when none is named.
const DefaultModel = "default"

var (
	// ErrUnknownAgent is returned when a team member names an undefined agent.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrUnknownModel is returned when an agent names an undefined model.
	ErrUnknownModel = errors.New("unknown model")

	// ErrDuplicateMember is returned when a team lists an agent twice. An
	// agent owns one memory, so it must not run twice within one team.
	ErrDuplicateMember = errors.New("agent listed twice in team")
)

// Config is the root of a configuration file.
type Config struct {
	Models map[string]ModelConfig `yaml:"models"`
	Agents []AgentConfig          `yaml:"agents"`
	Team   *TeamConfig            `yaml:"team,omitempty"`
}

// ModelConfig describes a model endpoint.
type ModelConfig struct {
	// Provider selects the adapter: openai, anthropic or ollama.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

// MemoryConfig selects a memory policy (see memory.New).
type MemoryConfig struct {
	Type  string `yaml:"type"`
	Limit int    `yaml:"limit"`
}

// AgentConfig describes one agent.
type AgentConfig struct {
	Name         string            `yaml:"name"`
	Model        string            `yaml:"model"`
	SystemPrompt string            `yaml:"system_prompt"`
	MaxTurns     int               `yaml:"max_turns"`
	Temperature  *float64          `yaml:"temperature"`
	MaxTokens    *int              `yaml:"max_tokens"`
	Memory       *MemoryConfig     `yaml:"memory"`
	Tools        []string          `yaml:"tools"`
	Knowledge    []knowledge.Entry `yaml:"knowledge"`
	Sandbox      *sandbox.Config   `yaml:"sandbox"`
	Metadata     map[string]any    `yaml:"metadata"`
}

// MemberConfig places an agent in a team. Keywords build the applicability
// predicate: the member applies when the prompt contains any of them
// (case-insensitive). No keywords means the member applies to every prompt.
type MemberConfig struct {
	Agent    string   `yaml:"agent"`
	Role     string   `yaml:"role"`
	Keywords []string `yaml:"keywords"`
}

// TeamConfig describes a team of configured agents.
type TeamConfig struct {
	Mode    string         `yaml:"mode"`
	Workers int            `yaml:"workers"`
	Members []MemberConfig `yaml:"members"`
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv replaces ${VAR} references with environment values. Unset
// variables expand to the empty string; a bare $ is left alone.
func ExpandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}

// Parse expands environment references in data and decodes it. Unknown
// fields are rejected.
func Parse(data []byte) (*Config, error) {
	expanded := ExpandEnv(string(data))

	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks references between sections.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Agents))
	for i, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("agents[%d]: name is required", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("agents[%d]: duplicate name %q", i, a.Name)
		}
		seen[a.Name] = true

		if _, ok := c.Models[a.modelKey()]; !ok {
			return fmt.Errorf("agent %q: %w: %s", a.Name, ErrUnknownModel, a.modelKey())
		}
	}

	if c.Team != nil {
		members := make(map[string]bool, len(c.Team.Members))
		for i, m := range c.Team.Members {
			if !seen[m.Agent] {
				return fmt.Errorf("team.members[%d]: %w: %s", i, ErrUnknownAgent, m.Agent)
			}
			if members[m.Agent] {
				return fmt.Errorf("team.members[%d]: %w: %s", i, ErrDuplicateMember, m.Agent)
			}
			members[m.Agent] = true
		}
	}

	return nil
}

func (a AgentConfig) modelKey() string {
	if a.Model == "" {
		return DefaultModel
	}
	return a.Model
}
