// Package model defines the provider‑agnostic chat completion contract used by
// agentkit agents.
//
// Core goals:
//   - One synchronous Generate call per agent turn (messages in, one choice out)
//   - Normalize tool / function call representation (ToolDefinition, core.ToolCall)
//   - Normalize vendor faults (APIError, ErrAuthentication, ErrRateLimited)
//   - Facilitate lightweight mocking for tests (ScriptedModel, FuncModel)
//
// Providers (OpenAI compatible endpoints, Anthropic, langchaingo) implement the
// Model interface in sub packages so the agent loop stays decoupled from
// vendor SDKs.
package model
