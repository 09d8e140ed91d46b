package core

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a new unique identifier for runs and synthesized tool call ids.
func NewID() string { return uuid.NewString() }

// NewShortID returns the first n hex characters of a fresh UUID (dashes
// removed). n is clamped to [1, 32].
func NewShortID(n int) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	n = max(1, min(n, len(hex)))
	return hex[:n]
}
