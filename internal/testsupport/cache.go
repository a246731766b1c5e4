package testsupport

import (
	"context"
	"sync"
	"time"

	"github.com/Additional-Code/mercury/internal/cache"
)

// MemStore is an in-memory cache.Store for tests. TTLs are recorded but not
// enforced.
type MemStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

// NewMemStore constructs an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string][]byte)}
}

func (s *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.entries[key]; ok {
		return v, nil
	}
	return nil, cache.ErrCacheMiss
}

func (s *MemStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

func (s *MemStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Has reports whether the key is currently cached.
func (s *MemStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}
