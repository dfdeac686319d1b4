package cache

import (
	"context"
	"time"
)

// Store is a TTL-based key/value cache. Correctness never depends on a
// hit: concurrent writers for the same key are an accepted last-write-wins
// race, since payloads are deterministic within a caching window.
//
// Get distinguishes a fresh hit from a stale one so callers can fall back
// to stale data when every backend attempt is exhausted.
type Store interface {
	// Get returns the value for key. ok reports whether any entry exists;
	// fresh reports whether it is still within the TTL.
	Get(ctx context.Context, key string) (value []byte, fresh bool, ok bool)

	// Set stores value under key, stamped with the current time.
	Set(ctx context.Context, key string, value []byte) error
}

// DefaultTTL is how long a cached payload is considered fresh.
const DefaultTTL = 24 * time.Hour

// DefaultMaxAge is how long a stale entry is retained for fallback reads
// before it is evicted outright.
const DefaultMaxAge = 72 * time.Hour
