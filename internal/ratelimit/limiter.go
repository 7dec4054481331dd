// Package ratelimit admits or denies requests under a fixed-window policy
// backed by a shared relational store, so multiple stateless server
// instances bound concurrent requests through one set of counters.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/surrlabs/surr/internal/logger"
	"github.com/surrlabs/surr/internal/model"
)

// maxRaceRetries bounds the first-insert race fallback: three attempts in
// total, after which the request fails rather than being silently admitted.
const maxRaceRetries = 2

const raceBackoff = 5 * time.Millisecond

// Limiter wraps the store's single-attempt counter mutation with the
// bounded retry that resolves concurrent first inserts on the same key.
type Limiter struct {
	store  model.RateLimitStore
	logger *logger.Logger
}

func NewLimiter(store model.RateLimitStore, logger *logger.Logger) *Limiter {
	return &Limiter{store: store, logger: logger}
}

// Allow decides whether one request for routeKey from clientID fits inside
// the current window. A lost insert race is retried up to the bound; the
// retry finds the row the winning transaction created. Exhausting the
// bound yields model.ErrRaceExhausted, never a silent admission.
func (l *Limiter) Allow(ctx context.Context, routeKey, clientID string, limit int, window time.Duration) (model.RateLimitDecision, error) {
	key := routeKey + ":" + clientID

	var decision model.RateLimitDecision
	backoff := retry.WithMaxRetries(maxRaceRetries, retry.NewConstant(raceBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		d, err := l.store.Take(ctx, key, limit, window)
		if err != nil {
			if errors.Is(err, model.ErrCounterRace) {
				return retry.RetryableError(err)
			}
			return err
		}
		decision = d
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrCounterRace) {
			l.logger.Error("rate limit insert race not resolved",
				"key", key,
				"attempts", maxRaceRetries+1)
			return model.RateLimitDecision{}, model.ErrRaceExhausted
		}
		return model.RateLimitDecision{}, err
	}

	return decision, nil
}
