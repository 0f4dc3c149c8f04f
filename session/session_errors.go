package session

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrAuthenticationFailed is deliberately generic: the caller cannot tell
	// an unknown identity from a wrong secret or an inactive account. The
	// specific cause goes to the audit sink instead.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrUnavailable signals that a backing store could not be reached. It is
	// retryable and distinct from any authentication outcome.
	ErrUnavailable = errors.New("authentication backend unavailable")
)

// LockedError rejects an attempt from a locked identity/source key. It is
// distinguishable from ErrAuthenticationFailed so clients can back off.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %s", e.RetryAfter.Round(time.Second))
}
