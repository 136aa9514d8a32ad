package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mes/backend/internal/domain/shared"
)

// MemoryIdempotencyStore is a process-local idempotency store used when
// redis is not configured and in tests. Expired keys are pruned lazily.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMemoryIdempotencyStore creates an in-memory idempotency store
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{entries: make(map[string]time.Time)}
}

// MarkProcessed marks a key as processed, returning whether it was new
func (s *MemoryIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if expiry, ok := s.entries[key]; ok && expiry.After(now) {
		return false, nil
	}
	s.entries[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed checks whether a key was already processed
func (s *MemoryIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(s.entries, key)
		return false, nil
	}
	return true, nil
}

// Close implements shared.IdempotencyStore
func (s *MemoryIdempotencyStore) Close() error {
	return nil
}

var _ shared.IdempotencyStore = (*MemoryIdempotencyStore)(nil)
