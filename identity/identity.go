package identity

import (
	"fmt"
	"time"
)

// Role represents a user role within the maintenance platform
type Role string

const (
	RoleAdmin      Role = "admin"      // Full system control, user management
	RoleManager    Role = "manager"    // Plans interventions, assigns technicians
	RoleTechnician Role = "technician" // Executes interventions, enters field data
	RoleClient     Role = "client"     // Read-only access to own equipment and interventions
)

// Roles lists every valid role, used for validation and iteration.
var Roles = []Role{RoleAdmin, RoleManager, RoleTechnician, RoleClient}

// ParseRole converts a raw claim or request value into a Role.
// Unknown values are rejected rather than passed through.
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Identity is the principal the auth core operates on. It is owned by the
// user-management service; the auth core reads ID, Role and Active, and uses
// PasswordHash only through the credential package.
type Identity struct {
	ID           string    `json:"id,omitempty"`    // Unique identifier for the identity
	Email        string    `json:"email,omitempty"` // Login name
	PasswordHash string    `json:"-"`               // Hashed secret - never serialize
	Role         Role      `json:"role,omitempty"`
	Active       bool      `json:"active,omitempty"` // Inactive identities cannot authenticate
	CreatedAt    time.Time `json:"created_at,omitempty"`
	LastLogin    time.Time `json:"last_login,omitempty"`
}

// CanAuthenticate reports whether the identity is allowed to begin a session.
func (i *Identity) CanAuthenticate() bool {
	return i != nil && i.Active
}
