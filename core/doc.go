// Package core provides the foundational conversation types shared by every
// other agentkit package. It defines:
//
//   - Message (one transcript entry: system, user, assistant or tool)
//   - ToolCall / FunctionCall (structured tool invocation requests)
//   - TurnBudget (bounded turn accounting for the agent loop)
//   - NewID (UUID based identifiers for runs and synthesized call ids)
//
// The package intentionally keeps vendor and orchestration concerns out of
// scope so that model adapters, memory policies and the agent loop can all
// agree on a single canonical message shape.
package core
