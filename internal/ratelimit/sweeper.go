package ratelimit

import (
	"context"
	"time"

	"github.com/surrlabs/surr/internal/logger"
	"github.com/surrlabs/surr/internal/model"
)

// Sweeper periodically evicts expired rate limit counters and blacklist
// entries. It runs as a single long-lived task per process on its own store
// connection.
type Sweeper struct {
	rateLimits model.RateLimitStore
	blacklist  model.BlacklistStore
	interval   time.Duration
	logger     *logger.Logger
}

func NewSweeper(rateLimits model.RateLimitStore, blacklist model.BlacklistStore, interval time.Duration, logger *logger.Logger) *Sweeper {
	return &Sweeper{
		rateLimits: rateLimits,
		blacklist:  blacklist,
		interval:   interval,
		logger:     logger,
	}
}

// Run loops until ctx is cancelled. A failed iteration is logged and the
// loop continues; cancellation is observed between iterations so shutdown
// never waits on a partial sweep.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("sweeper started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()

	counters, err := s.rateLimits.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error("failed to sweep expired rate limit counters", "error", err.Error())
	} else if counters > 0 {
		s.logger.Debug("swept expired rate limit counters", "deleted", counters)
	}

	tokens, err := s.blacklist.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error("failed to sweep expired blacklist entries", "error", err.Error())
	} else if tokens > 0 {
		s.logger.Debug("swept expired blacklist entries", "deleted", tokens)
	}
}
