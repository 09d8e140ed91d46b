// Package agent implements the tool-augmented agent loop and multi-agent
// teams built on top of it.
//
// An Agent repeatedly calls its model, executes requested tools through its
// registry and feeds the results back until the model answers with plain
// text or the turn budget is exhausted. The same engine backs Run, which
// returns a Result, and Stream, which yields Events as steps complete. Hooks
// from the hook package observe and steer both.
//
// Team composes independent agents in three modes:
//   - sequential: each member sees the previous member's output as context
//   - parallel: members run concurrently on a bounded worker pool
//   - handoff: the first member whose condition matches handles the prompt
package agent
