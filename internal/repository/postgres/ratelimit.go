package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/surrlabs/surr/internal/model"
)

var _ model.RateLimitStore = (*RateLimitRepository)(nil)

// RateLimitRepository mutates fixed-window counters inside single
// transactions. The SELECT ... FOR UPDATE row lock is the serialization
// point: two transactions on the same key cannot both observe
// count == limit-1 and both admit.
type RateLimitRepository struct {
	db *Connection
}

func NewRateLimitRepository(db *Connection) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

// Take performs one fixed-window attempt for the key. A brand-new key is
// inserted with count=1; if a concurrent transaction wins that insert, the
// unique violation surfaces as model.ErrCounterRace and the caller retries,
// finding the row under the lock on the next attempt.
func (r *RateLimitRepository) Take(ctx context.Context, key string, limit int, window time.Duration) (model.RateLimitDecision, error) {
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.RateLimitDecision{}, fmt.Errorf("failed to begin rate limit transaction: %w", err)
	}
	defer tx.Rollback()

	const lockQuery = `SELECT key, count, reset_at FROM rate_limits WHERE key = $1 FOR UPDATE`

	var counter model.RateLimitCounter
	err = tx.QueryRowContext(ctx, lockQuery, key).Scan(&counter.Key, &counter.Count, &counter.ResetAt)

	var decision model.RateLimitDecision
	switch {
	case errors.Is(err, sql.ErrNoRows):
		decision, err = r.insertCounter(ctx, tx, key, limit, window, now)
		if err != nil {
			return model.RateLimitDecision{}, err
		}

	case err != nil:
		return model.RateLimitDecision{}, fmt.Errorf("failed to lock rate limit counter: %w", err)

	case now.After(counter.ResetAt):
		// Window elapsed: the counter rolls over silently, no budget carry-over.
		resetAt := now.Add(window)
		const resetQuery = `UPDATE rate_limits SET count = 1, reset_at = $2 WHERE key = $1`
		if _, err := tx.ExecContext(ctx, resetQuery, key, resetAt); err != nil {
			return model.RateLimitDecision{}, fmt.Errorf("failed to reset rate limit counter: %w", err)
		}
		decision = model.RateLimitDecision{Allowed: true, Remaining: limit - 1, ResetAt: resetAt}

	case counter.Count >= limit:
		// Budget exhausted: deny without incrementing. Commit below still
		// runs so the row lock is released promptly.
		decision = model.RateLimitDecision{Allowed: false, Remaining: 0, ResetAt: counter.ResetAt}

	default:
		const incrementQuery = `UPDATE rate_limits SET count = count + 1 WHERE key = $1`
		if _, err := tx.ExecContext(ctx, incrementQuery, key); err != nil {
			return model.RateLimitDecision{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
		}
		decision = model.RateLimitDecision{Allowed: true, Remaining: limit - counter.Count - 1, ResetAt: counter.ResetAt}
	}

	if err := tx.Commit(); err != nil {
		return model.RateLimitDecision{}, fmt.Errorf("failed to commit rate limit transaction: %w", err)
	}

	return decision, nil
}

func (r *RateLimitRepository) insertCounter(ctx context.Context, tx *sql.Tx, key string, limit int, window time.Duration, now time.Time) (model.RateLimitDecision, error) {
	resetAt := now.Add(window)
	const insertQuery = `INSERT INTO rate_limits (key, count, reset_at) VALUES ($1, 1, $2)`

	if _, err := tx.ExecContext(ctx, insertQuery, key, resetAt); err != nil {
		if isUniqueViolation(err) {
			return model.RateLimitDecision{}, model.ErrCounterRace
		}
		return model.RateLimitDecision{}, fmt.Errorf("failed to insert rate limit counter: %w", err)
	}

	return model.RateLimitDecision{Allowed: true, Remaining: limit - 1, ResetAt: resetAt}, nil
}

// DeleteExpired evicts counters whose window has elapsed.
func (r *RateLimitRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM rate_limits WHERE reset_at < $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired rate limit counters: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rate limit counters: %w", err)
	}
	return deleted, nil
}
