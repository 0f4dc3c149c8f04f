package refresh

import (
	"context"
	"time"

	"github.com/maintops/go-maint-auth/token"
	"github.com/pkg/errors"
)

// Manager handles refresh token creation, validation, and rotation.
type Manager struct {
	store   Store
	ttl     time.Duration
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

func NewManager(store Store, options ...ManagerOption) *Manager {
	m := &Manager{
		store:   store,
		ttl:     DefaultTTL,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Issue generates a new refresh token for the identity and persists it.
func (m *Manager) Issue(ctx context.Context, identityID string) (*Token, error) {
	t, err := m.newToken(identityID)
	if err != nil {
		return nil, err
	}
	if err := m.store.Insert(ctx, t); err != nil {
		return nil, errors.Wrap(err, "[Manager.Issue] store.Insert")
	}
	return t, nil
}

// Rotate exchanges a presented value for its successor. Exactly one rotation
// can ever succeed for a given value: expired records fail with ErrExpired,
// rotated or revoked ones with ErrReused, unknown ones with ErrNotFound.
// Reuse classification is the caller's signal to revoke the whole family.
func (m *Manager) Rotate(ctx context.Context, presentedValue string) (*Token, error) {
	old, err := m.store.Find(ctx, presentedValue)
	if err != nil {
		return nil, err
	}
	if old.Rotated || old.Revoked {
		return nil, ErrReused
	}
	if !m.nowFunc().Before(old.ExpiresAt) {
		return nil, ErrExpired
	}

	successor, err := m.newToken(old.IdentityID)
	if err != nil {
		return nil, err
	}

	// The store's conditional update decides races: if another rotation of
	// the same value won in the meantime, this returns ErrReused.
	if err := m.store.Rotate(ctx, presentedValue, successor); err != nil {
		return nil, err
	}
	return successor, nil
}

// RevokeAll marks every live record of the identity as revoked. Idempotent.
func (m *Manager) RevokeAll(ctx context.Context, identityID string) error {
	if err := m.store.RevokeAll(ctx, identityID); err != nil {
		return errors.Wrap(err, "[Manager.RevokeAll] store.RevokeAll")
	}
	return nil
}

// Find looks a record up by value, for introspection and tests.
func (m *Manager) Find(ctx context.Context, value string) (*Token, error) {
	return m.store.Find(ctx, value)
}

func (m *Manager) newToken(identityID string) (*Token, error) {
	value, err := token.NewOpaqueValue()
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.newToken] NewOpaqueValue")
	}
	now := m.nowFunc()
	return &Token{
		Value:      value,
		IdentityID: identityID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(m.ttl),
	}, nil
}
