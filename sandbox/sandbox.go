// Package sandbox defines where agent tools execute commands and touch files.
//
// A Provider is an isolated environment with a lifecycle (Start, Stop), a
// command runner and file access. The built-in shell and file tools accept a
// Provider so an agent can be pointed at a throwaway workspace instead of the
// host. Local is the process-based implementation shipped here; container
// backends implement the same interface.
package sandbox

import (
	"context"
	"errors"
	"time"
)

// ErrNotRunning is returned by operations on a provider that is not started.
var ErrNotRunning = errors.New("sandbox not started")

// ErrPathOutside is returned when a path escapes the sandbox working directory.
var ErrPathOutside = errors.New("path outside sandbox working directory")

// Status is the lifecycle state of a Provider.
type Status string

const (
	StatusCreated Status = "created"
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusError   Status = "error"
)

// Config describes a sandbox instance. Resource fields are advisory for
// providers that cannot enforce them.
type Config struct {
	Image          string            `yaml:"image" json:"image"`
	MemoryMB       int               `yaml:"memory_mb" json:"memory_mb"`
	CPUCount       int               `yaml:"cpu_count" json:"cpu_count"`
	TimeoutSeconds int               `yaml:"timeout_seconds" json:"timeout_seconds"`
	NetworkEnabled bool              `yaml:"network_enabled" json:"network_enabled"`
	ReadOnlyRoot   bool              `yaml:"read_only_root" json:"read_only_root"`
	WorkingDir     string            `yaml:"working_dir" json:"working_dir"`
	Env            map[string]string `yaml:"env" json:"env,omitempty"`
}

// DefaultConfig returns the defaults applied to zero Config fields.
func DefaultConfig() Config {
	return Config{
		Image:          "python:3.11-slim",
		MemoryMB:       512,
		CPUCount:       1,
		TimeoutSeconds: 1800,
		ReadOnlyRoot:   true,
		WorkingDir:     "/workspace",
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Image == "" {
		c.Image = d.Image
	}
	if c.MemoryMB <= 0 {
		c.MemoryMB = d.MemoryMB
	}
	if c.CPUCount <= 0 {
		c.CPUCount = d.CPUCount
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = d.TimeoutSeconds
	}
	if c.WorkingDir == "" {
		c.WorkingDir = d.WorkingDir
	}
	return c
}

// Timeout returns the default command timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Result is the outcome of one command.
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	TimedOut bool   `json:"timed_out"`
}

// Output returns stdout followed by stderr, separated by a newline when both
// are present.
func (r Result) Output() string {
	switch {
	case r.Stderr == "":
		return r.Stdout
	case r.Stdout == "":
		return r.Stderr
	default:
		return r.Stdout + "\n" + r.Stderr
	}
}

// Provider is an isolated execution environment.
type Provider interface {
	// Start prepares the environment. Starting a running provider is a no-op.
	Start(ctx context.Context) error
	// Stop tears the environment down and discards its files.
	Stop(ctx context.Context) error
	// Execute runs command through a shell in the working directory. A zero
	// timeout uses the configured default. A non-zero exit code is not an
	// error; the error return is reserved for failures to run at all.
	Execute(ctx context.Context, command string, timeout time.Duration) (*Result, error)
	WriteFile(ctx context.Context, path, content string) error
	ReadFile(ctx context.Context, path string) (string, error)
	IsRunning() bool
	Status() Status
}

// DirEntry is one item of a directory listing.
type DirEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

// DirLister is implemented by providers that can list directories without
// going through their shell.
type DirLister interface {
	ListDir(ctx context.Context, path string) ([]DirEntry, error)
}

// PathResolver is implemented by providers whose sandbox paths map onto host
// paths (see Local.Resolve).
type PathResolver interface {
	Resolve(path string) (string, error)
}
