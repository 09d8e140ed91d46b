package memory

import (
	"fmt"

	"github.com/hupe1980/agentkit/core"
)

// Snapshot is a serializable copy of a memory's active context.
type Snapshot struct {
	Type     string         `json:"type"`
	Messages []core.Message `json:"messages"`
}

// TakeSnapshot captures the active context of m.
func TakeSnapshot(m Memory) Snapshot {
	return Snapshot{Type: m.Kind(), Messages: m.Messages()}
}

// Restore clears m and replays the snapshot messages into it. The snapshot
// type is informational; any policy can be restored from any snapshot.
func Restore(m Memory, s Snapshot) {
	m.Clear()
	for _, msg := range s.Messages {
		m.Add(msg)
	}
}

// New constructs a memory by kind. limit is the window size for
// sliding_window and the token budget for token_budget; it is ignored for
// unlimited.
func New(kind string, limit int) (Memory, error) {
	switch kind {
	case "", KindUnlimited:
		return NewUnlimited(), nil
	case KindSlidingWindow:
		return NewSlidingWindow(limit), nil
	case KindTokenBudget:
		return NewTokenBudget(limit), nil
	default:
		return nil, fmt.Errorf("unknown memory kind %q", kind)
	}
}
