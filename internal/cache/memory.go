package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	timestamp time.Time
}

// MemoryStore is a concurrency-safe in-memory TTL cache. Entries older
// than the TTL are served as stale hits until maxAge, after which Sweep
// removes them.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry

	ttl    time.Duration
	maxAge time.Duration

	// clock is overridable in tests.
	clock func() time.Time
}

// NewMemoryStore creates a MemoryStore. Non-positive ttl or maxAge fall
// back to the package defaults.
func NewMemoryStore(ttl, maxAge time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if maxAge < ttl {
		maxAge = ttl
	}
	return &MemoryStore{
		data:   make(map[string]memoryEntry),
		ttl:    ttl,
		maxAge: maxAge,
		clock:  time.Now,
	}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	if !ok {
		return nil, false, false
	}

	age := s.clock().Sub(entry.timestamp)
	if age > s.maxAge {
		return nil, false, false
	}
	return entry.value, age <= s.ttl, true
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = memoryEntry{value: value, timestamp: s.clock()}
	return nil
}

// Sweep removes entries older than maxAge and returns how many were
// evicted. Intended to run from a periodic job.
func (s *MemoryStore) Sweep() int {
	cutoff := s.clock().Add(-s.maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, entry := range s.data {
		if entry.timestamp.Before(cutoff) {
			delete(s.data, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of entries currently held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
