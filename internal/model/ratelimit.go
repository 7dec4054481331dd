package model

import (
	"context"
	"time"
)

// RateLimitStore mutates per-key counters under row-level locks.
type RateLimitStore interface {
	// Take performs one transactional fixed-window attempt for the key:
	// lock the row, create or reset the counter as needed, and either
	// increment within budget or deny. Losing the first-insert race to a
	// concurrent transaction yields ErrCounterRace.
	Take(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
	// DeleteExpired evicts counters whose window has long elapsed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RateLimitDecision is the outcome of a single counter attempt.
type RateLimitDecision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateLimitCounter is a fixed-window counter row. The key combines the
// route path and the client identifier.
type RateLimitCounter struct {
	Key     string
	Count   int
	ResetAt time.Time
}
