package memory

import (
	"sync"

	"github.com/hupe1980/agentkit/core"
)

// Kind names of the built-in policies (used in snapshots and configuration).
const (
	KindUnlimited     = "unlimited"
	KindSlidingWindow = "sliding_window"
	KindTokenBudget   = "token_budget"
)

// Memory is an ordered message store with an eviction policy.
type Memory interface {
	// Add appends a message.
	Add(msg core.Message)
	// Messages returns the active context after applying the eviction policy.
	Messages() []core.Message
	// Clear removes every stored message.
	Clear()
	// Kind names the eviction policy.
	Kind() string
}

// Len returns the size of the active context of m.
func Len(m Memory) int { return len(m.Messages()) }

// store is the append-only log shared by every policy.
type store struct {
	mu      sync.RWMutex
	entries []core.Message
}

func (s *store) Add(msg core.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, msg.Clone())
}

func (s *store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// snapshot returns a deep copy of all stored entries.
func (s *store) snapshot() []core.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.CloneMessages(s.entries)
}

// split partitions msgs into system and non-system entries, preserving order.
func split(msgs []core.Message) (system, rest []core.Message) {
	for _, m := range msgs {
		if m.IsSystem() {
			system = append(system, m)
		} else {
			rest = append(rest, m)
		}
	}
	return system, rest
}

// Unlimited keeps every message ever added.
type Unlimited struct {
	store
}

// NewUnlimited creates an Unlimited memory.
func NewUnlimited() *Unlimited { return &Unlimited{} }

// Messages returns all entries in insertion order.
func (m *Unlimited) Messages() []core.Message {
	out := m.snapshot()
	if out == nil {
		return []core.Message{}
	}
	return out
}

// Kind implements Memory.
func (m *Unlimited) Kind() string { return KindUnlimited }

// SlidingWindow keeps the most recent messages up to a fixed count. The count
// includes system messages, which are always kept and returned first.
type SlidingWindow struct {
	store
	max int
}

// DefaultWindowSize is used when NewSlidingWindow receives a non-positive size.
const DefaultWindowSize = 20

// NewSlidingWindow creates a SlidingWindow memory holding at most maxMessages.
func NewSlidingWindow(maxMessages int) *SlidingWindow {
	if maxMessages <= 0 {
		maxMessages = DefaultWindowSize
	}
	return &SlidingWindow{max: maxMessages}
}

// MaxMessages returns the window size.
func (m *SlidingWindow) MaxMessages() int { return m.max }

// Messages returns all entries when they fit the window; otherwise every
// system entry followed by the newest (max - system count) other entries.
func (m *SlidingWindow) Messages() []core.Message {
	all := m.snapshot()
	if len(all) <= m.max {
		if all == nil {
			return []core.Message{}
		}
		return all
	}

	system, rest := split(all)
	keep := max(0, m.max-len(system))
	keep = min(keep, len(rest))

	out := make([]core.Message, 0, len(system)+keep)
	out = append(out, system...)
	out = append(out, rest[len(rest)-keep:]...)
	return out
}

// Kind implements Memory.
func (m *SlidingWindow) Kind() string { return KindSlidingWindow }

// DefaultCharsPerToken is the character to token ratio used for estimation.
const DefaultCharsPerToken = 4

// DefaultTokenBudget is used when NewTokenBudget receives a non-positive budget.
const DefaultTokenBudget = 4096

// TokenBudgetOptions configures a TokenBudget memory.
type TokenBudgetOptions struct {
	CharsPerToken int
}

// TokenBudget keeps the most recent messages whose estimated token cost fits
// the budget. System messages are always kept and their cost is charged first.
type TokenBudget struct {
	store
	budget        int
	charsPerToken int
}

// NewTokenBudget creates a TokenBudget memory with the given token budget.
func NewTokenBudget(budget int, optFns ...func(o *TokenBudgetOptions)) *TokenBudget {
	opts := TokenBudgetOptions{CharsPerToken: DefaultCharsPerToken}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.CharsPerToken <= 0 {
		opts.CharsPerToken = DefaultCharsPerToken
	}
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	return &TokenBudget{budget: budget, charsPerToken: opts.CharsPerToken}
}

// Budget returns the configured token budget.
func (m *TokenBudget) Budget() int { return m.budget }

// Estimate returns the estimated token cost of msg: its character length
// (content plus serialized tool calls) divided by the chars-per-token ratio,
// at least 1.
func (m *TokenBudget) Estimate(msg core.Message) int {
	return EstimateTokens(msg, m.charsPerToken)
}

// EstimateTokens estimates the token cost of msg for a chars-per-token ratio.
func EstimateTokens(msg core.Message, charsPerToken int) int {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return max(1, msg.TextLength()/charsPerToken)
}

// Messages returns every system entry followed by the newest other entries
// that fit the remaining budget. At least one non-system entry is returned
// whenever one exists, even if it alone exceeds the budget.
func (m *TokenBudget) Messages() []core.Message {
	system, rest := split(m.snapshot())

	remaining := m.budget
	for _, s := range system {
		remaining -= m.Estimate(s)
	}

	start := len(rest)
	for i := len(rest) - 1; i >= 0; i-- {
		cost := m.Estimate(rest[i])
		if remaining < cost && start < len(rest) {
			break
		}
		start = i
		remaining -= cost
	}

	out := make([]core.Message, 0, len(system)+len(rest)-start)
	out = append(out, system...)
	out = append(out, rest[start:]...)
	return out
}

// Kind implements Memory.
func (m *TokenBudget) Kind() string { return KindTokenBudget }

var (
	_ Memory = (*Unlimited)(nil)
	_ Memory = (*SlidingWindow)(nil)
	_ Memory = (*TokenBudget)(nil)
)
