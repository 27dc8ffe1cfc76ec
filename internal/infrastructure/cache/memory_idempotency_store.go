package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amas/backend/internal/domain/shared"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryIdempotencyStore is an in-process idempotency store for
// development and tests. Expired entries are dropped lazily on read.
type MemoryIdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryIdempotencyStore creates an in-memory idempotency store
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{entries: make(map[string]memoryEntry)}
}

// Get returns the value stored under the key. The second return value
// reports whether the key exists and has not expired.
func (s *MemoryIdempotencyStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores the value under the key for the given TTL
func (s *MemoryIdempotencyStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

var _ shared.IdempotencyStore = (*MemoryIdempotencyStore)(nil)
