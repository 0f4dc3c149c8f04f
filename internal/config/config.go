package config

type Config interface {
	EnvConfig
	AuthConfig
	SecurityConfig
	StoreConfig
	SSOConfig
}

type mainConfig struct {
	EnvVars
	Auth
	Security
	Store
	SSO
}

func New() Config {
	return mainConfig{}
}
