package model

import (
	"context"
	"time"
)

// BlacklistStore persists revoked tokens until their natural expiry.
type BlacklistStore interface {
	// Add records a revoked token. Adding the same token twice is a no-op.
	Add(ctx context.Context, token string, expiresAt time.Time) error
	Exists(ctx context.Context, token string) (bool, error)
	// DeleteExpired removes entries whose expiry has passed and reports how
	// many rows were deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// BlacklistEntry is a revoked token row. Entries are never mutated after
// creation and become garbage once ExpiresAt has passed.
type BlacklistEntry struct {
	ID        int64
	Token     string
	ExpiresAt time.Time
}
