package guard

import (
	"math"
	"sync"
	"time"

	"github.com/wealthsim/wealthsim/internal/domain"
)

const (
	bucketIdleThreshold = time.Hour
	cleanupInterval     = 30 * time.Minute
)

// Kind costs: cheap closed-form calculations draw one token, the simulation
// kinds draw many, giving them a much lower effective budget from the same
// bucket.
const (
	costCheap      = 1
	costSimulation = 10
)

func kindCost(kind domain.CalculationKind) float64 {
	switch kind {
	case domain.KindMonteCarlo, domain.KindMarketStressTest:
		return costSimulation
	default:
		return costCheap
	}
}

// bucket is one caller's token state. Tokens refill continuously at the
// limiter's rate; access is serialized per bucket so callers do not contend
// on a global lock during the token math.
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// RateLimiter is a token bucket per caller identity.
type RateLimiter struct {
	capacity   float64
	refillRate float64 // tokens per second

	mu      sync.RWMutex
	buckets map[string]*bucket

	stop chan struct{}
	once sync.Once
}

// NewRateLimiter creates a limiter where each caller holds up to capacity
// tokens, refilled at refillPerSecond. Idle buckets are dropped by a
// background cleanup loop.
func NewRateLimiter(capacity int, refillPerSecond float64) *RateLimiter {
	rl := &RateLimiter{
		capacity:   float64(capacity),
		refillRate: refillPerSecond,
		buckets:    make(map[string]*bucket),
		stop:       make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow draws the kind's cost from the caller's bucket. On refusal it
// returns how long the caller should wait before retrying.
func (rl *RateLimiter) Allow(callerID string, kind domain.CalculationKind) (bool, time.Duration) {
	b := rl.bucketFor(callerID)
	cost := kindCost(kind)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = math.Min(rl.capacity, b.tokens+elapsed*rl.refillRate)
	b.lastRefill = now

	if b.tokens >= cost {
		b.tokens -= cost
		return true, 0
	}

	deficit := cost - b.tokens
	wait := time.Duration(deficit / rl.refillRate * float64(time.Second))
	return false, wait
}

func (rl *RateLimiter) bucketFor(callerID string) *bucket {
	rl.mu.RLock()
	b, ok := rl.buckets[callerID]
	rl.mu.RUnlock()
	if ok {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, ok = rl.buckets[callerID]; ok {
		return b
	}
	b = &bucket{tokens: rl.capacity, lastRefill: time.Now()}
	rl.buckets[callerID] = b
	return b
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for id, b := range rl.buckets {
		b.mu.Lock()
		idle := now.Sub(b.lastRefill) > bucketIdleThreshold
		b.mu.Unlock()
		if idle {
			delete(rl.buckets, id)
		}
	}
}

// Stop terminates the cleanup loop.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}
