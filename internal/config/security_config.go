package config

import (
	"strings"
	"time"
)

type SecurityConfig interface {
	GetLockoutThreshold() int
	GetLockoutWindow() time.Duration
	GetLockoutBase() time.Duration
	GetLockoutMax() time.Duration
	GetMinPasswordLength() int
	GetEncryptionKeys() []string
	GetEnableRateLimiting() bool
	GetRateLimitPerSecond() int
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetLockoutThreshold() int {
	return GetEnvInt("LOCKOUT_THRESHOLD", 5)
}

func (Security) GetLockoutWindow() time.Duration {
	return GetEnvDuration("LOCKOUT_WINDOW", 15*time.Minute)
}

func (Security) GetLockoutBase() time.Duration {
	return GetEnvDuration("LOCKOUT_BASE", 5*time.Minute)
}

func (Security) GetLockoutMax() time.Duration {
	return GetEnvDuration("LOCKOUT_MAX", 40*time.Minute)
}

func (Security) GetMinPasswordLength() int {
	return GetEnvInt("PASSWORD_MIN_LENGTH", 10)
}

// GetEncryptionKeys returns the document encryption key ring, newest first.
// The env value is a comma-separated list of base64 keys; the ordered-list
// semantics live in doccipher.ParseKeyRing, not here.
func (Security) GetEncryptionKeys() []string {
	raw := GetEnv("ENCRYPTION_KEYS", "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}

func (Security) GetEnableRateLimiting() bool {
	return GetEnv("RATE_LIMIT_ENABLED", "true") == "true"
}

func (Security) GetRateLimitPerSecond() int {
	return GetEnvInt("RATE_LIMIT_PER_SECOND", 10)
}
