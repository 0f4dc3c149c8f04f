// Package refresh owns refresh-token records and their rotation lifecycle.
// A record is usable at most once: rotating it marks the old record and
// issues its single successor atomically, and any later presentation of a
// rotated or revoked value is treated as reuse.
package refresh

import (
	"errors"
	"time"
)

// DefaultTTL is the refresh token lifetime. Expiry is absolute wall-clock;
// rotation issues a brand-new record with a fresh TTL rather than sliding it.
const DefaultTTL = 7 * 24 * time.Hour

var (
	ErrNotFound = errors.New("refresh token not found")
	ErrExpired  = errors.New("refresh token expired")
	ErrReused   = errors.New("refresh token reuse detected")
)

// Token is the persisted refresh-token record. The client only ever receives
// Value; everything else is server-side state.
type Token struct {
	Value      string    // opaque random value (sent to client)
	IdentityID string    // owning principal
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Rotated    bool // set when the token was exchanged for a successor
	Revoked    bool // set by logout or reuse response
}

// Live reports whether the record can still be exchanged.
func (t *Token) Live(now time.Time) bool {
	return !t.Rotated && !t.Revoked && now.Before(t.ExpiresAt)
}
