// Package memory contains the conversation history stores an Agent reads its
// prior context from. Every store implements Memory and differs only in its
// eviction policy, which is applied when the active context is read:
//
//   - Unlimited keeps every message
//   - SlidingWindow keeps the most recent N messages
//   - TokenBudget keeps the most recent messages fitting an estimated token budget
//
// System messages are never evicted by any policy. A Memory instance belongs
// to exactly one Agent; sharing one between agents corrupts turn attribution.
package memory
