// Package token mints and verifies access tokens and generates the opaque
// values used as refresh tokens. Access tokens are self-verifying JWTs;
// refresh values are random bytes only the store can validate.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/maintops/go-maint-auth/identity"
	"github.com/pkg/errors"
)

const (
	DefaultAccessTokenTTL = 15 * time.Minute
	DefaultLeeway         = 5 * time.Second

	refreshValueLength = 32 // bytes of entropy per refresh value
)

// Claims is the signed claim bundle carried by an access token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity resolves the claim subject and role back into the closed role set.
func (c *Claims) Identity() (string, identity.Role, error) {
	role, err := identity.ParseRole(c.Role)
	if err != nil {
		return "", "", ErrTokenInvalid
	}
	return c.Subject, role, nil
}

// Issuer mints signed access tokens and verifies presented ones.
type Issuer struct {
	signer    Signer
	issuer    string
	audience  string
	accessTTL time.Duration
	leeway    time.Duration
	nowFunc   func() time.Time
}

type IssuerOption func(*Issuer)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func WithAccessTokenTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessTTL = ttl
	}
}

func WithAudience(audience string) IssuerOption {
	return func(i *Issuer) {
		i.audience = audience
	}
}

// WithLeeway sets the clock-skew tolerance applied during verification.
func WithLeeway(leeway time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.leeway = leeway
	}
}

func NewIssuer(signer Signer, issuerName string, options ...IssuerOption) *Issuer {
	i := &Issuer{
		signer:    signer,
		issuer:    issuerName,
		accessTTL: DefaultAccessTokenTTL,
		leeway:    DefaultLeeway,
		nowFunc:   time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// AccessTokenTTL returns the configured access token lifetime.
func (i *Issuer) AccessTokenTTL() time.Duration {
	return i.accessTTL
}

// IssueAccessToken mints a signed access token for the identity.
func (i *Issuer) IssueAccessToken(ident *identity.Identity) (string, error) {
	now := i.nowFunc()
	claims := Claims{
		Role: string(ident.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   ident.ID,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := i.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Issuer.IssueAccessToken] signer.Sign")
	}
	return signed, nil
}

// VerifyAccessToken checks the signature then the expiry of a presented
// token. A small leeway tolerates clock skew across instances. Expired
// tokens fail with ErrTokenExpired, everything else with ErrTokenInvalid.
func (i *Issuer) VerifyAccessToken(raw string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwt.WithLeeway(i.leeway),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.nowFunc),
	)

	parsed, err := parser.ParseWithClaims(raw, &Claims{}, i.signer.GetVerificationKey)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if _, err := identity.ParseRole(claims.Role); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// NewOpaqueValue generates a cryptographically random refresh value. It is
// deliberately not a JWT: it carries no decodable structure and can only be
// validated against the refresh token store.
func NewOpaqueValue() (string, error) {
	bytes := make([]byte, refreshValueLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "[NewOpaqueValue] rand.Read")
	}
	return hex.EncodeToString(bytes), nil
}
