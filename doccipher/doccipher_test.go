package doccipher_test

import (
	"testing"

	"github.com/maintops/go-maint-auth/doccipher"
	"github.com/stretchr/testify/require"
)

func newCipher(t *testing.T, encodedKeys ...string) *doccipher.Cipher {
	t.Helper()
	ring, err := doccipher.ParseKeyRing(encodedKeys)
	require.NoError(t, err)
	c, err := doccipher.New(ring)
	require.NoError(t, err)
	return c
}

func TestCipher_RoundTrip(t *testing.T) {
	key, err := doccipher.GenerateKey()
	require.NoError(t, err)
	c := newCipher(t, key)

	plaintext := []byte("intervention report: heat pump compressor replaced")
	sealed, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, sealed)

	opened, err := c.Decrypt(sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestCipher_NoncesDiffer(t *testing.T) {
	key, err := doccipher.GenerateKey()
	require.NoError(t, err)
	c := newCipher(t, key)

	first, err := c.Encrypt([]byte("same payload"))
	require.NoError(t, err)
	second, err := c.Encrypt([]byte("same payload"))
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestCipher_RotationKeepsOldDocumentsReadable(t *testing.T) {
	oldKey, err := doccipher.GenerateKey()
	require.NoError(t, err)
	newKey, err := doccipher.GenerateKey()
	require.NoError(t, err)

	oldCipher := newCipher(t, oldKey)
	sealed, err := oldCipher.Encrypt([]byte("pre-rotation document"))
	require.NoError(t, err)

	// After rotation the new key leads the ring and the old one trails it.
	rotated := newCipher(t, newKey, oldKey)
	require.Equal(t, 2, rotated.KeyCount())

	opened, err := rotated.Decrypt(sealed)
	require.NoError(t, err)
	require.Equal(t, []byte("pre-rotation document"), opened)

	// New documents seal under the new key and stay unreadable to a ring
	// that only holds the old one.
	freshlySealed, err := rotated.Encrypt([]byte("post-rotation document"))
	require.NoError(t, err)
	_, err = oldCipher.Decrypt(freshlySealed)
	require.ErrorIs(t, err, doccipher.ErrDecryptionFailed)
}

func TestCipher_TamperedCiphertextFails(t *testing.T) {
	key, err := doccipher.GenerateKey()
	require.NoError(t, err)
	c := newCipher(t, key)

	sealed, err := c.Encrypt([]byte("legal document"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0x01
	_, err = c.Decrypt(sealed)
	require.ErrorIs(t, err, doccipher.ErrDecryptionFailed)
}

func TestParseKeyRing_Validation(t *testing.T) {
	t.Run("empty ring", func(t *testing.T) {
		_, err := doccipher.ParseKeyRing(nil)
		require.ErrorIs(t, err, doccipher.ErrEmptyKeyRing)
	})

	t.Run("bad base64", func(t *testing.T) {
		_, err := doccipher.ParseKeyRing([]string{"%%%not-base64%%%"})
		require.Error(t, err)
	})

	t.Run("wrong key size", func(t *testing.T) {
		_, err := doccipher.ParseKeyRing([]string{"c2hvcnQ="}) // "short"
		require.Error(t, err)
	})
}
