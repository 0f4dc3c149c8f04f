// Package doccipher encrypts document payloads at rest with an ordered ring
// of AES-256-GCM keys. Encryption always uses the newest key; decryption
// tries keys newest to oldest, so the ring can rotate without re-encrypting
// historical documents.
package doccipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"
)

const keySize = 32 // AES-256

var (
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrEmptyKeyRing     = errors.New("key ring must contain at least one key")
)

// KeyRing is the ordered key set, newest first. It is loaded once at startup
// and never mutated at runtime; rotation means redeploying with an updated
// ring that has the new key prepended.
type KeyRing [][]byte

// ParseKeyRing builds a ring from base64-encoded keys ordered newest first,
// as supplied by configuration.
func ParseKeyRing(encoded []string) (KeyRing, error) {
	if len(encoded) == 0 {
		return nil, ErrEmptyKeyRing
	}
	ring := make(KeyRing, 0, len(encoded))
	for _, e := range encoded {
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(e))
		if err != nil {
			return nil, errors.Wrap(err, "[ParseKeyRing] base64 decode")
		}
		if len(key) != keySize {
			return nil, errors.Errorf("[ParseKeyRing] key must be %d bytes, got %d", keySize, len(key))
		}
		ring = append(ring, key)
	}
	return ring, nil
}

// GenerateKey returns a fresh base64-encoded key suitable for the ring.
func GenerateKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return "", errors.Wrap(err, "[GenerateKey] rand.Read")
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Cipher performs authenticated encryption with the ring.
type Cipher struct {
	aeads []cipher.AEAD // same order as the ring, newest first
}

func New(ring KeyRing) (*Cipher, error) {
	if len(ring) == 0 {
		return nil, ErrEmptyKeyRing
	}
	aeads := make([]cipher.AEAD, 0, len(ring))
	for _, key := range ring {
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, errors.Wrap(err, "[doccipher.New] aes.NewCipher")
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, errors.Wrap(err, "[doccipher.New] cipher.NewGCM")
		}
		aeads = append(aeads, aead)
	}
	return &Cipher{aeads: aeads}, nil
}

// Encrypt seals the plaintext with the newest key. The random nonce is
// prepended to the returned ciphertext.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	aead := c.aeads[0]
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "[Cipher.Encrypt] rand.Read")
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt tries every key newest to oldest and returns the plaintext from
// the first that authenticates. Tampered ciphertext fails for every key and
// surfaces ErrDecryptionFailed, never silent garbage.
func (c *Cipher) Decrypt(ciphertext []byte) ([]byte, error) {
	for _, aead := range c.aeads {
		if len(ciphertext) <= aead.NonceSize() {
			continue
		}
		nonce, sealed := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
		plaintext, err := aead.Open(nil, nonce, sealed, nil)
		if err == nil {
			return plaintext, nil
		}
	}
	return nil, ErrDecryptionFailed
}

// KeyCount returns the number of keys in the ring.
func (c *Cipher) KeyCount() int {
	return len(c.aeads)
}
