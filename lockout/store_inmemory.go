package lockout

import (
	"context"
	"sync"
	"time"
)

var _ Store = (*InMemoryStore)(nil)

type inMemoryEntry struct {
	state     State
	expiresAt time.Time
}

// InMemoryStore keeps lockout state in a process-local map. Suitable for a
// single instance; multi-instance deployments should use the Redis store.
type InMemoryStore struct {
	entries map[string]inMemoryEntry
	nowFunc func() time.Time
	mu      sync.RWMutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]inMemoryEntry),
		nowFunc: time.Now,
	}
}

func (s *InMemoryStore) Get(_ context.Context, key string) (State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok || s.nowFunc().After(entry.expiresAt) {
		return State{}, false, nil
	}
	return entry.state, true, nil
}

func (s *InMemoryStore) Put(_ context.Context, key string, state State, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = inMemoryEntry{state: state, expiresAt: s.nowFunc().Add(ttl)}
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Cleanup removes expired entries.
func (s *InMemoryStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}
