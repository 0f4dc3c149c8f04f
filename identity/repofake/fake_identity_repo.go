package fakeidentityrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maintops/go-maint-auth/identity"
)

var _ identity.Repo = (*FakeIdentityRepo)(nil)

var ErrNotFound = identity.ErrNotFound

type FakeIdentityRepo struct {
	identities map[string]*identity.Identity
	emailIDs   map[string]string // email to identity id
	lock       sync.RWMutex
}

func NewFakeIdentityRepo() *FakeIdentityRepo {
	return &FakeIdentityRepo{
		identities: make(map[string]*identity.Identity),
		emailIDs:   make(map[string]string),
	}
}

// Upsert is a test helper for seeding identities - the real user-management
// service owns identity creation.
func (ir *FakeIdentityRepo) Upsert(ident *identity.Identity) {
	ir.lock.Lock()
	defer ir.lock.Unlock()

	if ident.ID == "" {
		ident.ID = uuid.New().String()
	}
	ir.identities[ident.ID] = ident
	ir.emailIDs[ident.Email] = ident.ID
}

func (ir *FakeIdentityRepo) GetByID(_ context.Context, id string) (*identity.Identity, error) {
	ir.lock.RLock()
	defer ir.lock.RUnlock()

	ident, ok := ir.identities[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *ident
	return &copied, nil
}

func (ir *FakeIdentityRepo) GetByEmail(_ context.Context, email string) (*identity.Identity, error) {
	ir.lock.RLock()
	defer ir.lock.RUnlock()

	id, ok := ir.emailIDs[email]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *ir.identities[id]
	return &copied, nil
}

func (ir *FakeIdentityRepo) SetPasswordHash(_ context.Context, id string, hash string) error {
	ir.lock.Lock()
	defer ir.lock.Unlock()

	ident, ok := ir.identities[id]
	if !ok {
		return ErrNotFound
	}
	ident.PasswordHash = hash
	return nil
}

func (ir *FakeIdentityRepo) SetLastLogin(_ context.Context, id string) error {
	ir.lock.Lock()
	defer ir.lock.Unlock()

	ident, ok := ir.identities[id]
	if !ok {
		return ErrNotFound
	}
	ident.LastLogin = time.Now()
	return nil
}
