package core

import (
	"fmt"
	"sync"
)

// TurnBudget enforces a maximum number of model round-trips per run.
type TurnBudget struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewTurnBudget creates a new budget allowing max turns.
// If max <= 0, unlimited turns are allowed.
func NewTurnBudget(max int) *TurnBudget {
	return &TurnBudget{max: max}
}

// Consume records one turn and returns an error if the budget is exceeded.
func (b *TurnBudget) Consume() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max > 0 && b.count >= b.max {
		return fmt.Errorf("turn budget exhausted: %d", b.max)
	}

	b.count++

	return nil
}

// Used returns the number of turns consumed so far.
func (b *TurnBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.count
}

// Max returns the configured maximum (0 means unlimited).
func (b *TurnBudget) Max() int { return b.max }

// Remaining returns how many turns are left before hitting the limit.
func (b *TurnBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max <= 0 {
		return -1 // unlimited
	}

	return b.max - b.count
}
