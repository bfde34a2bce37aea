package cache

import (
	"context"
	"sync"
	"time"

	"github.com/wealthsim/wealthsim/internal/domain"
)

// Store is the cache backend. Implementations own entry lifecycle: an
// expired entry is a miss, never a stale hit.
type Store interface {
	Get(ctx context.Context, key Fingerprint) (*domain.CalculationResult, bool, error)
	Set(ctx context.Context, key Fingerprint, result *domain.CalculationResult, ttl time.Duration) error
}

const sweepInterval = time.Minute

// entry is one cached result with its expiry bookkeeping.
type entry struct {
	result    *domain.CalculationResult
	createdAt time.Time
	ttl       time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// MemoryStore is the default in-process backend. Expired entries are
// dropped lazily on lookup and by a background sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Fingerprint]*entry
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[Fingerprint]*entry),
		stop:    make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *MemoryStore) Get(_ context.Context, key Fingerprint) (*domain.CalculationResult, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if e.expired(time.Now()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.result, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key Fingerprint, result *domain.CalculationResult, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = &entry{result: result, createdAt: time.Now(), ttl: ttl}
	s.mu.Unlock()
	return nil
}

// Len reports live (unexpired) entries.
func (s *MemoryStore) Len() int {
	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
		}
	}
}

// Stop terminates the background sweep.
func (s *MemoryStore) Stop() {
	s.once.Do(func() { close(s.stop) })
}
