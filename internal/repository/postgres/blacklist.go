package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/surrlabs/surr/internal/model"
)

var _ model.BlacklistStore = (*BlacklistRepository)(nil)

// BlacklistRepository persists revoked tokens. Rows are append-only and
// eligible for cleanup once expired.
type BlacklistRepository struct {
	db *Connection
}

func NewBlacklistRepository(db *Connection) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Add inserts a revoked token. Concurrent revocations of the same token
// collide on the unique index; ON CONFLICT makes the second insert an
// idempotent no-op instead of an error.
func (r *BlacklistRepository) Add(ctx context.Context, token string, expiresAt time.Time) error {
	const query = `INSERT INTO token_blacklist (token, expires_at)
                   VALUES ($1, $2)
                   ON CONFLICT (token) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, token, expiresAt); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

func (r *BlacklistRepository) Exists(ctx context.Context, token string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE token = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists, nil
}

func (r *BlacklistRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM token_blacklist WHERE expires_at < $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired blacklist entries: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted blacklist entries: %w", err)
	}
	return deleted, nil
}
