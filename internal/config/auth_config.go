package config

import "time"

// SignerType selects the access-token signing scheme.
type SignerType string

const (
	SignerTypeHMAC  SignerType = "HS256"
	SignerTypeRS256 SignerType = "RS256"
)

type AuthConfig interface {
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetIssuer() string
	GetAudience() string
	GetSignerType() SignerType
	GetSigningSecret() string
	GetSigningKeyPEM() string
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetAccessTokenTTL() time.Duration {
	return GetEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute)
}

func (Auth) GetRefreshTokenTTL() time.Duration {
	return GetEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour)
}

func (Auth) GetIssuer() string {
	return GetEnv("TOKEN_ISSUER", "maint-auth")
}

func (Auth) GetAudience() string {
	return GetEnv("TOKEN_AUDIENCE", "maint-api")
}

func (Auth) GetSignerType() SignerType {
	return SignerType(GetEnv("TOKEN_SIGNER", string(SignerTypeHMAC)))
}

// GetSigningSecret returns the HMAC signing secret. Required when the
// signer type is HS256.
func (Auth) GetSigningSecret() string {
	return GetEnv("TOKEN_SIGNING_SECRET", "")
}

// GetSigningKeyPEM returns the PEM-encoded RSA private key. Required when
// the signer type is RS256.
func (Auth) GetSigningKeyPEM() string {
	return GetEnv("TOKEN_SIGNING_KEY_PEM", "")
}
