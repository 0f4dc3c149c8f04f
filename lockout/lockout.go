// Package lockout tracks failed authentication attempts per identity/source
// key and applies progressive lockout before any credential work is done.
package lockout

import (
	"context"
	"sync"
	"time"

	"github.com/maintops/go-maint-auth/audit"
	"github.com/pkg/errors"
)

const (
	DefaultThreshold   = 5
	DefaultWindow      = 15 * time.Minute
	DefaultBaseLockout = 5 * time.Minute
	DefaultMaxLockout  = 40 * time.Minute
)

// State is the ephemeral record kept per key. It is created on the first
// failed attempt, cleared on success, and expires with the rolling window.
type State struct {
	Failures    int       `json:"failures"`
	Lockouts    int       `json:"lockouts"` // consecutive lockouts, drives the backoff doubling
	WindowStart time.Time `json:"window_start"`
	LockedUntil time.Time `json:"locked_until,omitempty"`
}

// Status is the decision returned to the caller.
type Status struct {
	Locked     bool
	Failures   int
	RetryAfter time.Duration
}

// Store persists lockout state. Implementations must honour the TTL so stale
// entries expire with the window.
type Store interface {
	Get(ctx context.Context, key string) (State, bool, error)
	Put(ctx context.Context, key string, state State, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Guard is the brute-force state machine: Clear -> Warning(n<threshold) ->
// Locked(duration), with the lock duration doubling on every consecutive
// lockout up to a cap.
type Guard struct {
	store       Store
	threshold   int
	window      time.Duration
	baseLockout time.Duration
	maxLockout  time.Duration
	sink        audit.Sink
	nowFunc     func() time.Time

	// Serializes read-modify-write cycles on RecordFailure so concurrent
	// failures from one key cannot lose increments. Cross-instance
	// deployments additionally rely on the store's own atomicity.
	mu sync.Mutex
}

type GuardOption func(*Guard)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) GuardOption {
	return func(g *Guard) {
		g.nowFunc = now
	}
}

func WithThreshold(threshold int) GuardOption {
	return func(g *Guard) {
		g.threshold = threshold
	}
}

func WithWindow(window time.Duration) GuardOption {
	return func(g *Guard) {
		g.window = window
	}
}

func WithLockoutDurations(base, max time.Duration) GuardOption {
	return func(g *Guard) {
		g.baseLockout = base
		g.maxLockout = max
	}
}

func WithAuditSink(sink audit.Sink) GuardOption {
	return func(g *Guard) {
		g.sink = sink
	}
}

func NewGuard(store Store, options ...GuardOption) *Guard {
	g := &Guard{
		store:       store,
		threshold:   DefaultThreshold,
		window:      DefaultWindow,
		baseLockout: DefaultBaseLockout,
		maxLockout:  DefaultMaxLockout,
		sink:        audit.NopSink{},
		nowFunc:     time.Now,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Key builds the tracking key from the identity and its source.
func Key(identifier, source string) string {
	return identifier + "|" + source
}

// IsAllowed reports whether an authentication attempt for key may proceed.
// It is consulted before credential verification so a locked caller never
// reaches the hash comparison.
func (g *Guard) IsAllowed(ctx context.Context, key string) (Status, error) {
	state, ok, err := g.store.Get(ctx, key)
	if err != nil {
		return Status{}, errors.Wrap(err, "[Guard.IsAllowed] store.Get")
	}
	if !ok {
		return Status{}, nil
	}

	now := g.nowFunc()
	if !state.LockedUntil.IsZero() && state.LockedUntil.After(now) {
		return Status{
			Locked:     true,
			Failures:   state.Failures,
			RetryAfter: state.LockedUntil.Sub(now),
		}, nil
	}
	return Status{Failures: state.Failures}, nil
}

// RecordFailure registers a failed attempt and returns the resulting status.
// Crossing the threshold enters Locked and emits a bruteforce audit event.
func (g *Guard) RecordFailure(ctx context.Context, identifier, source string) (Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := Key(identifier, source)
	now := g.nowFunc()

	state, ok, err := g.store.Get(ctx, key)
	if err != nil {
		return Status{}, errors.Wrap(err, "[Guard.RecordFailure] store.Get")
	}
	if !ok || now.After(state.WindowStart.Add(g.window)) {
		// Window elapsed: start a fresh one but keep the lockout history so
		// repeat offenders still see doubled durations.
		state = State{Lockouts: state.Lockouts, WindowStart: now}
	}

	state.Failures++

	status := Status{Failures: state.Failures}
	if state.Failures >= g.threshold {
		duration := g.baseLockout << state.Lockouts
		if duration > g.maxLockout {
			duration = g.maxLockout
		}
		state.Lockouts++
		state.Failures = 0
		state.WindowStart = now
		state.LockedUntil = now.Add(duration)
		status = Status{Locked: true, RetryAfter: duration}

		g.sink.Record(audit.Event{
			Kind:      audit.KindLoginBruteforce,
			Identity:  identifier,
			Source:    source,
			Outcome:   "locked",
			Timestamp: now,
		})
	}

	ttl := g.window
	if !state.LockedUntil.IsZero() {
		if until := state.LockedUntil.Sub(now) + g.window; until > ttl {
			ttl = until
		}
	}
	if err := g.store.Put(ctx, key, state, ttl); err != nil {
		return Status{}, errors.Wrap(err, "[Guard.RecordFailure] store.Put")
	}
	return status, nil
}

// Clear resets the state for key after a successful authentication.
func (g *Guard) Clear(ctx context.Context, identifier, source string) error {
	if err := g.store.Delete(ctx, Key(identifier, source)); err != nil {
		return errors.Wrap(err, "[Guard.Clear] store.Delete")
	}
	return nil
}
