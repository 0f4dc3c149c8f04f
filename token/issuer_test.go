package token_test

import (
	"testing"
	"time"

	"github.com/maintops/go-maint-auth/identity"
	"github.com/maintops/go-maint-auth/token"
	"github.com/stretchr/testify/require"
)

func testIdentity() *identity.Identity {
	return &identity.Identity{
		ID:     "ident-42",
		Email:  "tech@example.com",
		Role:   identity.RoleTechnician,
		Active: true,
	}
}

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := token.NewIssuer(token.NewHMACSigner("test-signing-secret"), "maint-auth",
		token.WithAudience("maint-api"))

	signed, err := issuer.IssueAccessToken(testIdentity())
	require.NoError(t, err)

	claims, err := issuer.VerifyAccessToken(signed)
	require.NoError(t, err)
	require.Equal(t, "ident-42", claims.Subject)
	require.Equal(t, "technician", claims.Role)
	require.Equal(t, "maint-auth", claims.Issuer)
	require.Contains(t, claims.Audience, "maint-api")
	require.NotEmpty(t, claims.ID) // unique jti per token

	id, role, err := claims.Identity()
	require.NoError(t, err)
	require.Equal(t, "ident-42", id)
	require.Equal(t, identity.RoleTechnician, role)
}

func TestIssuer_Expiry(t *testing.T) {
	issued := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	now := issued

	issuer := token.NewIssuer(token.NewHMACSigner("test-signing-secret"), "maint-auth",
		token.WithNowFunc(func() time.Time { return now }),
		token.WithAccessTokenTTL(15*time.Minute),
		token.WithLeeway(0),
	)

	signed, err := issuer.IssueAccessToken(testIdentity())
	require.NoError(t, err)

	t.Run("valid just before expiry", func(t *testing.T) {
		now = issued.Add(15*time.Minute - time.Second)
		_, err := issuer.VerifyAccessToken(signed)
		require.NoError(t, err)
	})

	t.Run("expired at the exact boundary", func(t *testing.T) {
		now = issued.Add(15 * time.Minute)
		_, err := issuer.VerifyAccessToken(signed)
		require.ErrorIs(t, err, token.ErrTokenExpired)
	})

	t.Run("expired just after expiry", func(t *testing.T) {
		now = issued.Add(15*time.Minute + time.Second)
		_, err := issuer.VerifyAccessToken(signed)
		require.ErrorIs(t, err, token.ErrTokenExpired)
	})
}

func TestIssuer_Leeway(t *testing.T) {
	issued := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	now := issued

	issuer := token.NewIssuer(token.NewHMACSigner("test-signing-secret"), "maint-auth",
		token.WithNowFunc(func() time.Time { return now }),
		token.WithAccessTokenTTL(15*time.Minute),
		token.WithLeeway(5*time.Second),
	)

	signed, err := issuer.IssueAccessToken(testIdentity())
	require.NoError(t, err)

	// Within the skew tolerance the token still verifies.
	now = issued.Add(15*time.Minute + 3*time.Second)
	_, err = issuer.VerifyAccessToken(signed)
	require.NoError(t, err)

	now = issued.Add(15*time.Minute + 6*time.Second)
	_, err = issuer.VerifyAccessToken(signed)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestIssuer_RejectsTamperedTokens(t *testing.T) {
	issuer := token.NewIssuer(token.NewHMACSigner("test-signing-secret"), "maint-auth")

	t.Run("malformed", func(t *testing.T) {
		_, err := issuer.VerifyAccessToken("not-a-jwt")
		require.ErrorIs(t, err, token.ErrTokenInvalid)
	})

	t.Run("wrong key", func(t *testing.T) {
		other := token.NewIssuer(token.NewHMACSigner("different-secret"), "maint-auth")
		signed, err := other.IssueAccessToken(testIdentity())
		require.NoError(t, err)

		_, err = issuer.VerifyAccessToken(signed)
		require.ErrorIs(t, err, token.ErrTokenInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := token.NewIssuer(token.NewHMACSigner("test-signing-secret"), "someone-else")
		signed, err := other.IssueAccessToken(testIdentity())
		require.NoError(t, err)

		_, err = issuer.VerifyAccessToken(signed)
		require.ErrorIs(t, err, token.ErrTokenInvalid)
	})

	t.Run("unknown role claim", func(t *testing.T) {
		signed, err := issuer.IssueAccessToken(&identity.Identity{ID: "x", Role: "superuser", Active: true})
		require.NoError(t, err)

		_, err = issuer.VerifyAccessToken(signed)
		require.ErrorIs(t, err, token.ErrTokenInvalid)
	})
}

func TestIssuer_RSASigner(t *testing.T) {
	keyPair, err := token.GenerateRSAKeyPair("kid-1", 2048)
	require.NoError(t, err)

	issuer := token.NewIssuer(token.NewKeyPairSigner(keyPair), "maint-auth")

	signed, err := issuer.IssueAccessToken(testIdentity())
	require.NoError(t, err)

	claims, err := issuer.VerifyAccessToken(signed)
	require.NoError(t, err)
	require.Equal(t, "ident-42", claims.Subject)

	t.Run("HMAC token rejected by RSA issuer", func(t *testing.T) {
		hmacIssuer := token.NewIssuer(token.NewHMACSigner("test-signing-secret"), "maint-auth")
		hmacToken, err := hmacIssuer.IssueAccessToken(testIdentity())
		require.NoError(t, err)

		_, err = issuer.VerifyAccessToken(hmacToken)
		require.ErrorIs(t, err, token.ErrTokenInvalid)
	})
}

func TestNewOpaqueValue(t *testing.T) {
	first, err := token.NewOpaqueValue()
	require.NoError(t, err)
	require.Len(t, first, 64) // 32 random bytes, hex encoded

	second, err := token.NewOpaqueValue()
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
