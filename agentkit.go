// Package agentkit provides a thin façade over the config, agent and team
// packages for applications that describe their agents in a YAML file. Most
// applications interact with this package by:
//  1. Loading a configuration file via Load (models, agents, optional team)
//  2. Starting the resulting bundle so per-agent sandboxes are ready
//  3. Running a single agent (Bundle.Agent(...).Run) or the team (Bundle.RunTeam)
//
// Programs that build agents in code use the agent package directly.
package agentkit

import (
	"context"

	"github.com/hupe1980/agentkit/config"
)

// Version is the library version.
const Version = "0.1.0"

// Options configures Load.
type Options struct {
	// Factory creates models for the models section. Nil uses
	// config.DefaultFactory.
	Factory config.ModelFactory
	Build   config.BuildOptions
}

// Load reads the YAML configuration at path and builds its agents and team.
func Load(path string, optFns ...func(o *Options)) (*config.Bundle, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	return config.Build(cfg, opts.Factory, func(o *config.BuildOptions) { *o = opts.Build })
}

// Run loads path, starts its sandboxes, runs the configured team on prompt
// and stops the sandboxes again.
func Run(ctx context.Context, path, prompt string, optFns ...func(o *Options)) (string, error) {
	b, err := Load(path, optFns...)
	if err != nil {
		return "", err
	}

	if err := b.Start(ctx); err != nil {
		_ = b.Stop(context.WithoutCancel(ctx))
		return "", err
	}
	defer func() { _ = b.Stop(context.WithoutCancel(ctx)) }()

	res, err := b.RunTeam(ctx, prompt)
	if err != nil {
		return "", err
	}

	return res.Content, nil
}
