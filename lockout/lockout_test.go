package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/maintops/go-maint-auth/audit"
	"github.com/maintops/go-maint-auth/lockout"
	"github.com/stretchr/testify/require"
)

// testClock lets the tests move time forward deterministically.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestGuard(t *testing.T) (*lockout.Guard, *testClock, *audit.Recorder) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	recorder := audit.NewRecorder()
	guard := lockout.NewGuard(lockout.NewInMemoryStore(),
		lockout.WithNowFunc(clock.Now),
		lockout.WithAuditSink(recorder),
	)
	return guard, clock, recorder
}

func failN(t *testing.T, guard *lockout.Guard, n int) lockout.Status {
	t.Helper()
	var status lockout.Status
	var err error
	for i := 0; i < n; i++ {
		status, err = guard.RecordFailure(context.Background(), "user@example.com", "10.0.0.1")
		require.NoError(t, err)
	}
	return status
}

func TestGuard_ThresholdLocks(t *testing.T) {
	guard, _, recorder := newTestGuard(t)
	ctx := context.Background()
	key := lockout.Key("user@example.com", "10.0.0.1")

	status := failN(t, guard, 4)
	require.False(t, status.Locked)
	require.Equal(t, 4, status.Failures)

	allowed, err := guard.IsAllowed(ctx, key)
	require.NoError(t, err)
	require.False(t, allowed.Locked)

	status = failN(t, guard, 1)
	require.True(t, status.Locked)
	require.Equal(t, 5*time.Minute, status.RetryAfter)

	allowed, err = guard.IsAllowed(ctx, key)
	require.NoError(t, err)
	require.True(t, allowed.Locked)
	require.Equal(t, 5*time.Minute, allowed.RetryAfter)

	event, found := recorder.Last(audit.KindLoginBruteforce)
	require.True(t, found)
	require.Equal(t, "user@example.com", event.Identity)
}

func TestGuard_ProgressiveDoubling(t *testing.T) {
	guard, clock, _ := newTestGuard(t)
	ctx := context.Background()
	key := lockout.Key("user@example.com", "10.0.0.1")

	expected := []time.Duration{
		5 * time.Minute,
		10 * time.Minute,
		20 * time.Minute,
		40 * time.Minute,
		40 * time.Minute, // capped
	}
	for _, want := range expected {
		status := failN(t, guard, 5)
		require.True(t, status.Locked)
		require.Equal(t, want, status.RetryAfter)

		// Wait out the lock before the next burst of failures.
		clock.Advance(want + time.Second)
		allowed, err := guard.IsAllowed(ctx, key)
		require.NoError(t, err)
		require.False(t, allowed.Locked)
	}
}

func TestGuard_ClearResetsEverything(t *testing.T) {
	guard, _, _ := newTestGuard(t)
	ctx := context.Background()
	key := lockout.Key("user@example.com", "10.0.0.1")

	failN(t, guard, 4)
	require.NoError(t, guard.Clear(ctx, "user@example.com", "10.0.0.1"))

	allowed, err := guard.IsAllowed(ctx, key)
	require.NoError(t, err)
	require.Zero(t, allowed.Failures)

	// A cleared key starts its doubling over at the base duration.
	status := failN(t, guard, 5)
	require.True(t, status.Locked)
	require.Equal(t, 5*time.Minute, status.RetryAfter)
}

func TestGuard_WindowExpiryForgetsFailures(t *testing.T) {
	guard, clock, _ := newTestGuard(t)

	failN(t, guard, 4)
	clock.Advance(16 * time.Minute)

	status := failN(t, guard, 1)
	require.False(t, status.Locked)
	require.Equal(t, 1, status.Failures)
}

func TestGuard_SourcesAreIndependent(t *testing.T) {
	guard, _, _ := newTestGuard(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := guard.RecordFailure(ctx, "user@example.com", "10.0.0.1")
		require.NoError(t, err)
	}

	allowed, err := guard.IsAllowed(ctx, lockout.Key("user@example.com", "192.168.7.2"))
	require.NoError(t, err)
	require.False(t, allowed.Locked)
}
