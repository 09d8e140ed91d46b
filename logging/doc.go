// Package logging provides a minimal logging interface and adapters for agentkit.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that agents, teams and tools use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - StructuredLogger with component/agent/run context and domain helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	a := agent.New("assistant", llm, func(o *agent.Options) { o.Logger = logger })
package logging
