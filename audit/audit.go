// Package audit defines the security event stream consumed by the external
// audit-log collaborator. Recording is fire-and-forget: a sink must never
// block or fail the auth flow.
package audit

import "time"

// Kind classifies a security event.
type Kind string

const (
	KindLoginSuccess    Kind = "auth.login.success"
	KindLoginFailed     Kind = "auth.login.failed"
	KindLoginBruteforce Kind = "auth.login.bruteforce"
	KindLoginLocked     Kind = "auth.login.locked"

	KindTokenCreated   Kind = "auth.token.created"
	KindTokenRefreshed Kind = "auth.token.refreshed"
	KindTokenRevoked   Kind = "auth.token.revoked"
	KindTokenInvalid   Kind = "auth.token.invalid"

	KindPasswordChanged         Kind = "auth.password.changed"
	KindPasswordPolicyViolation Kind = "auth.password.policy_violation"

	KindSecurityAlert Kind = "security.alert"
)

// Event is a single audit record.
type Event struct {
	Kind      Kind      `json:"kind"`
	Identity  string    `json:"identity,omitempty"` // principal id or login name
	Source    string    `json:"source,omitempty"`   // client source key (usually IP)
	Outcome   string    `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives audit events. Implementations must be non-blocking.
type Sink interface {
	Record(event Event)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Record(Event) {}

// MultiSink fans an event out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Record(event Event) {
	for _, sink := range m {
		sink.Record(event)
	}
}
