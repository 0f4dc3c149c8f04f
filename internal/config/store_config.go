package config

type StoreConfig interface {
	GetDatabaseURL() string
	GetRedisAddr() string
	GetRedisPassword() string
}

type Store struct{}

var _ StoreConfig = Store{}

// GetDatabaseURL returns the Postgres DSN for the refresh-token store.
// Empty means run with the in-memory store (development only).
func (Store) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}

// GetRedisAddr returns the Redis address for shared lockout state.
// Empty means keep lockout counters in process memory.
func (Store) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}

func (Store) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}
