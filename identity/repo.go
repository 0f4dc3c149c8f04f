package identity

import "context"

// Repo provides lookups against the external user-management store.
// The auth core never creates or deletes identities; SetPasswordHash and
// SetLastLogin are the only mutations it performs.
type Repo interface {
	GetByID(ctx context.Context, id string) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	SetPasswordHash(ctx context.Context, id string, hash string) error
	SetLastLogin(ctx context.Context, id string) error
}
