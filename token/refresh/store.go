package refresh

import "context"

// Store persists refresh-token records. It is the only owner of their
// mutable state; callers go through the Manager.
//
// Rotate must be atomic: the conditional flip of the old record and the
// insert of its successor happen in one transaction, and the conditional
// update must fail (ErrReused) when the record was already rotated or
// revoked - including by a concurrent rotation of the same value.
type Store interface {
	Insert(ctx context.Context, token *Token) error
	Find(ctx context.Context, value string) (*Token, error)
	Rotate(ctx context.Context, oldValue string, successor *Token) error
	RevokeAll(ctx context.Context, identityID string) error
}
