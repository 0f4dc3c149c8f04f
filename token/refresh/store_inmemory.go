package refresh

import (
	"context"
	"sync"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore keeps refresh-token records in a process-local map. It
// mirrors the transactional semantics of the Postgres store: Rotate flips
// the old record and inserts the successor under one lock, and loses cleanly
// to a concurrent rotation of the same value.
type InMemoryStore struct {
	tokens map[string]*Token
	lock   sync.Mutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tokens: make(map[string]*Token),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, token *Token) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	copied := *token
	s.tokens[token.Value] = &copied
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, value string) (*Token, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	t, ok := s.tokens[value]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *InMemoryStore) Rotate(_ context.Context, oldValue string, successor *Token) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	old, ok := s.tokens[oldValue]
	if !ok {
		return ErrNotFound
	}
	// Conditional update: only an unrotated, unrevoked record can rotate.
	if old.Rotated || old.Revoked {
		return ErrReused
	}
	old.Rotated = true

	copied := *successor
	s.tokens[successor.Value] = &copied
	return nil
}

func (s *InMemoryStore) RevokeAll(_ context.Context, identityID string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, t := range s.tokens {
		if t.IdentityID == identityID && !t.Revoked {
			t.Revoked = true
		}
	}
	return nil
}

// Cleanup drops records that can never be used again, for retention hygiene.
func (s *InMemoryStore) Cleanup(nowUnix int64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for value, t := range s.tokens {
		if t.ExpiresAt.Unix() <= nowUnix {
			delete(s.tokens, value)
		}
	}
}
