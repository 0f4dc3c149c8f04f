package config

type SSOConfig interface {
	GetSSOIssuerURL() string
	GetSSOClientID() string
	GetSSOClientSecret() string
	GetSSOScopes() string
}

type SSO struct{}

var _ SSOConfig = SSO{}

// GetSSOIssuerURL returns the corporate OIDC provider URL. Empty disables
// the SSO login route entirely.
func (SSO) GetSSOIssuerURL() string {
	return GetEnv("SSO_ISSUER_URL", "")
}

func (SSO) GetSSOClientID() string {
	return GetEnv("SSO_CLIENT_ID", "")
}

func (SSO) GetSSOClientSecret() string {
	return GetEnv("SSO_CLIENT_SECRET", "")
}

func (SSO) GetSSOScopes() string {
	return GetEnv("SSO_SCOPES", "openid,profile,email")
}
