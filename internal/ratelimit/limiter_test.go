package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrlabs/surr/internal/model"
	"github.com/surrlabs/surr/internal/testutil"
)

// scriptedStore returns canned results per call, for exercising the retry path.
type scriptedStore struct {
	mu      sync.Mutex
	results []scriptedResult
	calls   int
	lastKey string
}

type scriptedResult struct {
	decision model.RateLimitDecision
	err      error
}

func (s *scriptedStore) Take(_ context.Context, key string, _ int, _ time.Duration) (model.RateLimitDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastKey = key
	if s.calls >= len(s.results) {
		return model.RateLimitDecision{}, assert.AnError
	}
	r := s.results[s.calls]
	s.calls++
	return r.decision, r.err
}

func (s *scriptedStore) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// memoryStore implements the fixed-window contract in memory so limiter
// semantics can be tested without a database.
type memoryStore struct {
	mu       sync.Mutex
	counters map[string]*model.RateLimitCounter
	now      func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{counters: map[string]*model.RateLimitCounter{}, now: time.Now}
}

func (s *memoryStore) Take(_ context.Context, key string, limit int, window time.Duration) (model.RateLimitDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	counter, ok := s.counters[key]
	switch {
	case !ok:
		counter = &model.RateLimitCounter{Key: key, Count: 1, ResetAt: now.Add(window)}
		s.counters[key] = counter
	case now.After(counter.ResetAt):
		counter.Count = 1
		counter.ResetAt = now.Add(window)
	case counter.Count >= limit:
		return model.RateLimitDecision{Allowed: false, ResetAt: counter.ResetAt}, nil
	default:
		counter.Count++
	}
	return model.RateLimitDecision{Allowed: true, Remaining: limit - counter.Count, ResetAt: counter.ResetAt}, nil
}

func (s *memoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for key, counter := range s.counters {
		if counter.ResetAt.Before(now) {
			delete(s.counters, key)
			deleted++
		}
	}
	return deleted, nil
}

func TestLimiter_Allow_FixedWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	limiter := NewLimiter(store, testutil.MakeNoopLogger())

	// Budget of 5: exactly five admissions, then denial.
	for i := 0; i < 5; i++ {
		decision, err := limiter.Allow(ctx, "/auth/login", "10.0.0.1", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 4-i, decision.Remaining)
	}

	decision, err := limiter.Allow(ctx, "/auth/login", "10.0.0.1", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	// A different client is unaffected.
	decision, err = limiter.Allow(ctx, "/auth/login", "10.0.0.2", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestLimiter_Allow_WindowRollsOver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	limiter := NewLimiter(store, testutil.MakeNoopLogger())

	for i := 0; i < 5; i++ {
		_, err := limiter.Allow(ctx, "/auth/login", "10.0.0.1", 5, time.Minute)
		require.NoError(t, err)
	}

	decision, err := limiter.Allow(ctx, "/auth/login", "10.0.0.1", 5, time.Minute)
	require.NoError(t, err)
	require.False(t, decision.Allowed)

	// After the window elapses the counter resets with a fresh count of 1.
	now = now.Add(time.Minute + time.Second)

	decision, err = limiter.Allow(ctx, "/auth/login", "10.0.0.1", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 4, decision.Remaining)
}

func TestLimiter_Allow_RetriesInsertRace(t *testing.T) {
	t.Parallel()

	store := &scriptedStore{results: []scriptedResult{
		{err: model.ErrCounterRace},
		{err: model.ErrCounterRace},
		{decision: model.RateLimitDecision{Allowed: true, Remaining: 3}},
	}}
	limiter := NewLimiter(store, testutil.MakeNoopLogger())

	decision, err := limiter.Allow(context.Background(), "/auth/signup", "10.0.0.1", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 3, store.calls)
	assert.Equal(t, "/auth/signup:10.0.0.1", store.lastKey)
}

func TestLimiter_Allow_RaceExhausted(t *testing.T) {
	t.Parallel()

	store := &scriptedStore{results: []scriptedResult{
		{err: model.ErrCounterRace},
		{err: model.ErrCounterRace},
		{err: model.ErrCounterRace},
	}}
	limiter := NewLimiter(store, testutil.MakeNoopLogger())

	_, err := limiter.Allow(context.Background(), "/auth/signup", "10.0.0.1", 5, time.Minute)
	assert.ErrorIs(t, err, model.ErrRaceExhausted)
	assert.Equal(t, 3, store.calls)
}

func TestLimiter_Allow_StoreErrorNotRetried(t *testing.T) {
	t.Parallel()

	store := &scriptedStore{results: []scriptedResult{
		{err: assert.AnError},
	}}
	limiter := NewLimiter(store, testutil.MakeNoopLogger())

	_, err := limiter.Allow(context.Background(), "/auth/signup", "10.0.0.1", 5, time.Minute)
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrRaceExhausted)
	assert.Equal(t, 1, store.calls)
}

func TestLimiter_Allow_ConcurrentAdmissionsBounded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	limiter := NewLimiter(store, testutil.MakeNoopLogger())

	const (
		budget  = 5
		clients = 20
	)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
		denied  int
	)

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := limiter.Allow(ctx, "/auth/login", "10.0.0.1", budget, time.Minute)
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			if decision.Allowed {
				allowed++
			} else {
				denied++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, budget, allowed)
	assert.Equal(t, clients-budget, denied)
}
