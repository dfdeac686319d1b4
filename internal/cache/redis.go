package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// redisEnvelope wraps a cached payload with its write time so freshness
// can be judged independently of the Redis key TTL, which only bounds how
// long stale entries survive for fallback reads.
type redisEnvelope struct {
	Timestamp time.Time       `json:"timestamp"`
	Value     json.RawMessage `json:"value"`
}

// RedisStore is a Redis-backed TTL cache.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	maxAge time.Duration
}

// NewRedisStore creates a RedisStore on an existing client. Non-positive
// ttl or maxAge fall back to the package defaults.
func NewRedisStore(client *redis.Client, ttl, maxAge time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if maxAge < ttl {
		maxAge = ttl
	}
	return &RedisStore{client: client, ttl: ttl, maxAge: maxAge}
}

// Get implements Store. Redis errors are reported as misses; the cache is
// best-effort and callers always have a miss path.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, bool) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false, false
	}

	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false, false
	}

	age := time.Since(env.Timestamp)
	if age > s.maxAge {
		return nil, false, false
	}
	return env.Value, age <= s.ttl, true
}

// Set implements Store. The key expires after maxAge so stale fallback
// reads stay possible until then.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	raw, err := json.Marshal(redisEnvelope{
		Timestamp: time.Now().UTC(),
		Value:     json.RawMessage(value),
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, raw, s.maxAge).Err()
}
