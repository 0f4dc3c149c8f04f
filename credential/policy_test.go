package credential_test

import (
	"errors"
	"testing"

	"github.com/maintops/go-maint-auth/credential"
	"github.com/stretchr/testify/require"
)

func TestPolicyValidate(t *testing.T) {
	policy := credential.DefaultPolicy()

	t.Run("compliant secret passes", func(t *testing.T) {
		require.NoError(t, policy.Validate("Chaudiere-2026!"))
	})

	t.Run("nine characters rejected at boundary", func(t *testing.T) {
		err := policy.Validate("Abc-123x!")
		require.Error(t, err)

		var policyErr *credential.PolicyError
		require.True(t, errors.As(err, &policyErr))
		require.Len(t, policyErr.Reasons, 1)
		require.Contains(t, policyErr.Reasons[0], "at least 10 characters")
	})

	t.Run("ten characters accepted at boundary", func(t *testing.T) {
		require.NoError(t, policy.Validate("Abc-1234x!"))
	})

	t.Run("all violations reported at once", func(t *testing.T) {
		err := policy.Validate("short")
		require.Error(t, err)

		var policyErr *credential.PolicyError
		require.True(t, errors.As(err, &policyErr))
		require.Len(t, policyErr.Reasons, 4) // length, upper, digit, symbol
	})

	t.Run("missing symbol only", func(t *testing.T) {
		err := policy.Validate("Abcdefgh123")
		require.Error(t, err)

		var policyErr *credential.PolicyError
		require.True(t, errors.As(err, &policyErr))
		require.Len(t, policyErr.Reasons, 1)
		require.Contains(t, policyErr.Reasons[0], "symbol")
	})

	t.Run("denylisted secret rejected regardless of case", func(t *testing.T) {
		err := policy.Validate("Password123")
		require.Error(t, err)

		var policyErr *credential.PolicyError
		require.True(t, errors.As(err, &policyErr))

		found := false
		for _, reason := range policyErr.Reasons {
			if reason == "is too common and not allowed" {
				found = true
			}
		}
		require.True(t, found)
	})

	t.Run("relaxed policy skips disabled checks", func(t *testing.T) {
		relaxed := credential.Policy{MinLength: 4, AllowedSymbols: credential.AllowedSymbols}
		require.NoError(t, relaxed.Validate("abcd"))
	})
}
