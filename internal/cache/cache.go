// Package cache memoizes calculation results keyed by request fingerprint,
// with TTL expiry and single-flight de-duplication of concurrent identical
// requests.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wealthsim/wealthsim/internal/domain"
)

// DefaultTTL is how long a computed result stays servable.
const DefaultTTL = 5 * time.Minute

// flight tracks one in-progress computation; followers block on done.
type flight struct {
	done   chan struct{}
	result *domain.CalculationResult
	err    error
}

// Cache wraps a Store with single-flight semantics and hit accounting.
type Cache struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	flights map[Fingerprint]*flight

	hits     atomic.Int64
	misses   atomic.Int64
	bypasses atomic.Int64
}

// New creates a cache over the given store. A zero ttl means DefaultTTL.
func New(store Store, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:   store,
		ttl:     ttl,
		logger:  logger,
		flights: make(map[Fingerprint]*flight),
	}
}

// GetOrCompute returns the cached result for key, or runs compute exactly
// once across all concurrent callers of the same key. Store failures
// degrade to direct computation: the request still succeeds, with status
// bypassed.
func (c *Cache) GetOrCompute(
	ctx context.Context,
	key Fingerprint,
	compute func(context.Context) (*domain.CalculationResult, error),
) (*domain.CalculationResult, domain.CacheStatus, error) {
	cached, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache lookup failed, computing directly",
			"key", string(key), "error", err)
		c.bypasses.Add(1)
		result, cerr := compute(ctx)
		return result, domain.CacheBypassed, cerr
	}
	if ok {
		c.hits.Add(1)
		return cached, domain.CacheHit, nil
	}

	c.mu.Lock()
	if f, inFlight := c.flights[key]; inFlight {
		c.mu.Unlock()
		select {
		case <-f.done:
			if f.err != nil {
				return nil, domain.CacheMiss, f.err
			}
			// Served from the leader's computation without recomputing.
			c.hits.Add(1)
			return f.result, domain.CacheHit, nil
		case <-ctx.Done():
			return nil, domain.CacheMiss, domain.NewTimeoutError(ctx.Err())
		}
	}
	f := &flight{done: make(chan struct{})}
	c.flights[key] = f
	c.mu.Unlock()

	c.misses.Add(1)
	result, err := compute(ctx)
	f.result, f.err = result, err

	c.mu.Lock()
	delete(c.flights, key)
	c.mu.Unlock()
	close(f.done)

	if err != nil {
		return nil, domain.CacheMiss, err
	}
	if serr := c.store.Set(ctx, key, result, c.ttl); serr != nil {
		c.logger.Warn("cache store failed, result served uncached",
			"key", string(key), "error", serr)
	}
	return result, domain.CacheMiss, nil
}

// Stats is a snapshot of cache accounting.
type Stats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	Bypasses int64   `json:"bypasses"`
	HitRate  float64 `json:"hitRate"`
}

func (c *Cache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	s := Stats{Hits: hits, Misses: misses, Bypasses: c.bypasses.Load()}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}
