package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wealthsim/wealthsim/internal/domain"
)

// RedisStore backs the cache with Redis so multiple engine processes share
// computed results. Store errors surface to the cache layer, which degrades
// to direct computation rather than failing the request.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to the given address. The key prefix isolates the
// engine's entries from other users of the same Redis.
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: "wealthsim:result:",
	}
}

func (s *RedisStore) key(fp Fingerprint) string { return s.prefix + string(fp) }

func (s *RedisStore) Get(ctx context.Context, fp Fingerprint) (*domain.CalculationResult, bool, error) {
	val, err := s.client.Get(ctx, s.key(fp)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var result domain.CalculationResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten.
		return nil, false, nil
	}
	return &result, true, nil
}

func (s *RedisStore) Set(ctx context.Context, fp Fingerprint, result *domain.CalculationResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("redis set: marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.key(fp), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }
