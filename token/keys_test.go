package token_test

import (
	"testing"

	"github.com/maintops/go-maint-auth/token"
	"github.com/stretchr/testify/require"
)

func TestKeyPair_PEMRoundTrip(t *testing.T) {
	keyPair, err := token.GenerateRSAKeyPair("kid-1", 2048)
	require.NoError(t, err)

	pem, err := keyPair.ExportPrivateKeyPEM()
	require.NoError(t, err)

	loaded, err := token.LoadKeyPairFromPEM("kid-1", pem)
	require.NoError(t, err)

	// Tokens signed with the original pair verify against the loaded one.
	issuer := token.NewIssuer(token.NewKeyPairSigner(keyPair), "maint-auth")
	verifier := token.NewIssuer(token.NewKeyPairSigner(loaded), "maint-auth")

	signed, err := issuer.IssueAccessToken(testIdentity())
	require.NoError(t, err)

	claims, err := verifier.VerifyAccessToken(signed)
	require.NoError(t, err)
	require.Equal(t, "ident-42", claims.Subject)
}

func TestLoadKeyPairFromPEM_RejectsGarbage(t *testing.T) {
	_, err := token.LoadKeyPairFromPEM("kid-1", "not a pem block")
	require.Error(t, err)
}
