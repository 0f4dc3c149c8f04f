// Package credential verifies presented secrets against stored hashes and
// enforces the password policy on every credential-setting path.
package credential

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// HashSecret hashes a plaintext secret for storage.
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "[HashSecret] bcrypt.GenerateFromPassword")
	}
	return string(bytes), nil
}

// Verify compares a presented secret with a stored hash. bcrypt's comparison
// is constant time; the secret itself is never logged or returned.
func Verify(presented, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(presented)) == nil
}
