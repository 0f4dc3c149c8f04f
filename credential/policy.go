package credential

import (
	"fmt"
	"strings"
	"unicode"
)

// AllowedSymbols is the symbol set a compliant secret must draw from.
const AllowedSymbols = "!@#$%^&*()-_+=[]{};:,.?/|"

// commonSecrets is the denylist of secrets rejected regardless of complexity.
var commonSecrets = map[string]struct{}{
	"password":    {},
	"password123": {},
	"123456":      {},
	"123456789":   {},
	"qwerty":      {},
	"abc123":      {},
	"admin":       {},
	"root":        {},
	"user":        {},
	"test":        {},
	"guest":       {},
	"azerty":      {},
	"motdepasse":  {},
}

// Policy holds the configurable password requirements.
type Policy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSymbol  bool
	DenyCommon     bool
	AllowedSymbols string
}

// DefaultPolicy returns the production policy: 10+ characters, all four
// character classes, denylist enabled.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:      10,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSymbol:  true,
		DenyCommon:     true,
		AllowedSymbols: AllowedSymbols,
	}
}

// PolicyError carries every violated requirement so callers can report all
// failures at once instead of the first one found.
type PolicyError struct {
	Reasons []string
}

func (e *PolicyError) Error() string {
	return "password policy violation: " + strings.Join(e.Reasons, "; ")
}

// Validate checks a candidate secret against the policy. It returns nil when
// the candidate is compliant, or a *PolicyError listing every violation.
func (p Policy) Validate(candidate string) error {
	var reasons []string

	if len(candidate) < p.MinLength {
		reasons = append(reasons, fmt.Sprintf("must be at least %d characters long", p.MinLength))
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, char := range candidate {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		case strings.ContainsRune(p.AllowedSymbols, char):
			hasSymbol = true
		}
	}

	if p.RequireUpper && !hasUpper {
		reasons = append(reasons, "must contain at least one uppercase letter")
	}
	if p.RequireLower && !hasLower {
		reasons = append(reasons, "must contain at least one lowercase letter")
	}
	if p.RequireDigit && !hasDigit {
		reasons = append(reasons, "must contain at least one digit")
	}
	if p.RequireSymbol && !hasSymbol {
		reasons = append(reasons, fmt.Sprintf("must contain at least one symbol from %s", p.AllowedSymbols))
	}
	if p.DenyCommon {
		if _, denied := commonSecrets[strings.ToLower(candidate)]; denied {
			reasons = append(reasons, "is too common and not allowed")
		}
	}

	if len(reasons) > 0 {
		return &PolicyError{Reasons: reasons}
	}
	return nil
}
