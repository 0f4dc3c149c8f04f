// Package session orchestrates login, refresh and logout over the credential
// verifier, brute-force guard, token issuer and refresh-token store. It owns
// the mapping from internal failure causes to what callers are allowed to see.
package session

import (
	"context"
	"time"

	"github.com/maintops/go-maint-auth/audit"
	"github.com/maintops/go-maint-auth/credential"
	"github.com/maintops/go-maint-auth/identity"
	"github.com/maintops/go-maint-auth/lockout"
	"github.com/maintops/go-maint-auth/token"
	"github.com/maintops/go-maint-auth/token/refresh"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// TokenPair is the response to a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Deps holds the collaborator dependencies of the Controller.
type Deps struct {
	Identities identity.Repo
	Guard      *lockout.Guard
	Issuer     *token.Issuer
	Refresh    *refresh.Manager
	Audit      audit.Sink
}

// Controller is the principal state machine of the auth core.
type Controller struct {
	deps    Deps
	policy  credential.Policy
	logger  zerolog.Logger
	nowFunc func() time.Time
}

type ControllerOption func(*Controller)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowFunc = now
	}
}

func WithPolicy(policy credential.Policy) ControllerOption {
	return func(c *Controller) {
		c.policy = policy
	}
}

func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func NewController(deps Deps, options ...ControllerOption) (*Controller, error) {
	if deps.Identities == nil {
		return nil, errors.New("[NewController] Identities repo is required")
	}
	if deps.Guard == nil {
		return nil, errors.New("[NewController] Guard is required")
	}
	if deps.Issuer == nil {
		return nil, errors.New("[NewController] Issuer is required")
	}
	if deps.Refresh == nil {
		return nil, errors.New("[NewController] Refresh manager is required")
	}
	if deps.Audit == nil {
		deps.Audit = audit.NopSink{}
	}

	c := &Controller{
		deps:    deps,
		policy:  credential.DefaultPolicy(),
		logger:  zerolog.Nop(),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Login authenticates email+secret from sourceKey and returns a token pair.
// The guard is consulted before any credential work; a locked key is rejected
// without touching the hash. Every failure cause other than lockout collapses
// to ErrAuthenticationFailed externally while the audit sink records it.
func (c *Controller) Login(ctx context.Context, email, secret, sourceKey string) (*TokenPair, error) {
	status, err := c.deps.Guard.IsAllowed(ctx, lockout.Key(email, sourceKey))
	if err != nil {
		// Guard storage trouble fails open: locking everyone out on a cache
		// outage is a worse failure mode than briefly losing backoff.
		c.logger.Warn().Err(err).Msg("lockout guard unavailable, failing open")
	}
	if status.Locked {
		c.record(audit.KindLoginLocked, email, sourceKey, "rejected")
		return nil, &LockedError{RetryAfter: status.RetryAfter}
	}

	ident, err := c.deps.Identities.GetByEmail(ctx, email)
	if err != nil {
		// Only a definitive miss counts against the caller. A store outage
		// must not feed the brute-force counter or look like bad credentials.
		if errors.Is(err, identity.ErrNotFound) {
			return nil, c.failLogin(ctx, email, sourceKey, "unknown identity")
		}
		c.logger.Error().Err(err).Msg("identity lookup failed")
		return nil, ErrUnavailable
	}
	if !ident.CanAuthenticate() {
		return nil, c.failLogin(ctx, email, sourceKey, "inactive identity")
	}
	if !credential.Verify(secret, ident.PasswordHash) {
		return nil, c.failLogin(ctx, email, sourceKey, "wrong secret")
	}

	if err := c.deps.Guard.Clear(ctx, email, sourceKey); err != nil {
		c.logger.Warn().Err(err).Msg("failed to clear lockout state")
	}

	pair, err := c.issuePair(ctx, ident)
	if err != nil {
		return nil, err
	}
	if err := c.deps.Identities.SetLastLogin(ctx, ident.ID); err != nil {
		c.logger.Warn().Err(err).Str("identity", ident.ID).Msg("failed to record last login")
	}

	c.record(audit.KindLoginSuccess, ident.ID, sourceKey, "success")
	return pair, nil
}

// LoginFederated starts a session for an identity whose credential was
// verified by the corporate SSO provider. The identity must already be
// provisioned locally; SSO never creates accounts. The brute-force guard is
// not consulted since no local secret is being guessed.
func (c *Controller) LoginFederated(ctx context.Context, email, sourceKey string) (*TokenPair, error) {
	ident, err := c.deps.Identities.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, identity.ErrNotFound) {
			c.logger.Error().Err(err).Msg("identity lookup failed")
			return nil, ErrUnavailable
		}
		c.record(audit.KindLoginFailed, email, sourceKey, "sso identity not provisioned")
		return nil, ErrAuthenticationFailed
	}
	if !ident.CanAuthenticate() {
		c.record(audit.KindLoginFailed, email, sourceKey, "sso identity inactive")
		return nil, ErrAuthenticationFailed
	}

	pair, err := c.issuePair(ctx, ident)
	if err != nil {
		return nil, err
	}
	if err := c.deps.Identities.SetLastLogin(ctx, ident.ID); err != nil {
		c.logger.Warn().Err(err).Str("identity", ident.ID).Msg("failed to record last login")
	}
	c.record(audit.KindLoginSuccess, ident.ID, sourceKey, "sso")
	return pair, nil
}

// Refresh exchanges a presented refresh value for a new token pair. Detected
// reuse revokes the identity's whole token family before reporting the same
// generic failure a wrong value gets.
func (c *Controller) Refresh(ctx context.Context, presentedValue string) (*TokenPair, error) {
	rotated, err := c.deps.Refresh.Rotate(ctx, presentedValue)
	if err != nil {
		switch {
		case errors.Is(err, refresh.ErrReused):
			c.respondToReuse(ctx, presentedValue)
			return nil, ErrAuthenticationFailed
		case errors.Is(err, refresh.ErrExpired), errors.Is(err, refresh.ErrNotFound):
			c.record(audit.KindTokenInvalid, "", "", err.Error())
			return nil, ErrAuthenticationFailed
		default:
			c.logger.Error().Err(err).Msg("refresh rotation failed")
			return nil, ErrUnavailable
		}
	}

	ident, err := c.deps.Identities.GetByID(ctx, rotated.IdentityID)
	if err != nil && !errors.Is(err, identity.ErrNotFound) {
		c.logger.Error().Err(err).Str("identity", rotated.IdentityID).Msg("identity lookup failed")
		return nil, ErrUnavailable
	}
	if err != nil || !ident.CanAuthenticate() {
		// The identity vanished or was deactivated between issuance and
		// refresh: kill the family and fail like any bad credential.
		_ = c.deps.Refresh.RevokeAll(ctx, rotated.IdentityID)
		c.record(audit.KindTokenRevoked, rotated.IdentityID, "", "identity not refreshable")
		return nil, ErrAuthenticationFailed
	}

	accessToken, err := c.deps.Issuer.IssueAccessToken(ident)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.Refresh] IssueAccessToken")
	}

	c.record(audit.KindTokenRefreshed, ident.ID, "", "success")
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: rotated.Value,
		TokenType:    "bearer",
		ExpiresIn:    int(c.deps.Issuer.AccessTokenTTL().Seconds()),
	}, nil
}

// Logout revokes every refresh token of the identity. Idempotent: logging
// out an identity with no live tokens succeeds quietly.
func (c *Controller) Logout(ctx context.Context, identityID string) error {
	if err := c.deps.Refresh.RevokeAll(ctx, identityID); err != nil {
		c.logger.Error().Err(err).Str("identity", identityID).Msg("logout revocation failed")
		return ErrUnavailable
	}
	c.record(audit.KindTokenRevoked, identityID, "", "logout")
	return nil
}

// ChangePassword verifies the old secret, enforces policy on the new one and
// revokes every outstanding refresh token so other sessions must log in again.
func (c *Controller) ChangePassword(ctx context.Context, identityID, oldSecret, newSecret string) error {
	ident, err := c.deps.Identities.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return ErrAuthenticationFailed
		}
		c.logger.Error().Err(err).Str("identity", identityID).Msg("identity lookup failed")
		return ErrUnavailable
	}
	if !credential.Verify(oldSecret, ident.PasswordHash) {
		c.record(audit.KindLoginFailed, identityID, "", "wrong secret on password change")
		return ErrAuthenticationFailed
	}

	// Policy is mandatory on every credential-setting path, regardless of role.
	if err := c.policy.Validate(newSecret); err != nil {
		c.record(audit.KindPasswordPolicyViolation, identityID, "", err.Error())
		return err
	}

	hash, err := credential.HashSecret(newSecret)
	if err != nil {
		return errors.Wrap(err, "[Controller.ChangePassword] HashSecret")
	}
	if err := c.deps.Identities.SetPasswordHash(ctx, identityID, hash); err != nil {
		c.logger.Error().Err(err).Str("identity", identityID).Msg("password update failed")
		return ErrUnavailable
	}

	if err := c.deps.Refresh.RevokeAll(ctx, identityID); err != nil {
		c.logger.Error().Err(err).Str("identity", identityID).Msg("post-change revocation failed")
	}
	c.record(audit.KindPasswordChanged, identityID, "", "success")
	return nil
}

// VerifyAccessToken validates a presented access token and returns its
// claims, for the request-authorization middleware.
func (c *Controller) VerifyAccessToken(raw string) (*token.Claims, error) {
	return c.deps.Issuer.VerifyAccessToken(raw)
}

func (c *Controller) issuePair(ctx context.Context, ident *identity.Identity) (*TokenPair, error) {
	accessToken, err := c.deps.Issuer.IssueAccessToken(ident)
	if err != nil {
		return nil, errors.Wrap(err, "[Controller.issuePair] IssueAccessToken")
	}

	refreshToken, err := c.deps.Refresh.Issue(ctx, ident.ID)
	if err != nil {
		c.logger.Error().Err(err).Str("identity", ident.ID).Msg("refresh issuance failed")
		return nil, ErrUnavailable
	}

	c.record(audit.KindTokenCreated, ident.ID, "", "success")
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Value,
		TokenType:    "bearer",
		ExpiresIn:    int(c.deps.Issuer.AccessTokenTTL().Seconds()),
	}, nil
}

// failLogin records the real cause internally and returns the generic error.
func (c *Controller) failLogin(ctx context.Context, email, sourceKey, cause string) error {
	c.record(audit.KindLoginFailed, email, sourceKey, cause)
	if _, err := c.deps.Guard.RecordFailure(ctx, email, sourceKey); err != nil {
		c.logger.Warn().Err(err).Msg("failed to record lockout failure")
	}
	return ErrAuthenticationFailed
}

// respondToReuse treats a replayed refresh value as possible theft: the
// owning identity's entire token family is revoked and a security alert is
// emitted.
func (c *Controller) respondToReuse(ctx context.Context, presentedValue string) {
	reused, err := c.deps.Refresh.Find(ctx, presentedValue)
	if err != nil {
		c.logger.Error().Err(err).Msg("could not resolve reused refresh token")
		return
	}
	if err := c.deps.Refresh.RevokeAll(ctx, reused.IdentityID); err != nil {
		c.logger.Error().Err(err).Str("identity", reused.IdentityID).Msg("family revocation failed")
	}
	c.record(audit.KindSecurityAlert, reused.IdentityID, "", "refresh token reuse detected")
}

func (c *Controller) record(kind audit.Kind, identityID, source, outcome string) {
	c.deps.Audit.Record(audit.Event{
		Kind:      kind,
		Identity:  identityID,
		Source:    source,
		Outcome:   outcome,
		Timestamp: c.nowFunc(),
	})
}
