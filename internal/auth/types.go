package auth

import (
	"errors"
	"regexp"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// IsValidUsername checks if a username meets format requirements.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleReceptionist is an ordinary credentialed front-desk user.
	// Works with customer records, notes and field definitions.
	RoleReceptionist Role = "receptionist"

	// RoleAdmin is the single administrative identity. It is reached only
	// through the shared-secret admin login and manages receptionist accounts.
	RoleAdmin Role = "admin"
)

// ValidRoles is the set of valid user roles.
var ValidRoles = []Role{RoleReceptionist, RoleAdmin}

// IsValidUserRole returns true if the role is a valid role for a user account.
func IsValidUserRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// AdminUsername is the username of the bootstrapped admin identity.
const AdminUsername = "admin"

// User represents an account in the directory.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session is a server-side record binding an opaque bearer token to a user.
//
// Token holds the raw token only on the value returned by SessionManager.Create;
// the store keeps a SHA-256 digest and lookups never repopulate it.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`

	// User is populated by lookups that join the owning account.
	User *User `json:"-"`
}

// Principal is the authenticated identity attached to an authorised request.
type Principal struct {
	UserID    string `json:"id"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	SessionID string `json:"-"`
}

// Can reports whether the principal's role grants the permission.
func (p *Principal) Can(perm Permission) bool {
	return p != nil && HasPermission(p.Role, perm)
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrSessionInvalid     = errors.New("session is missing, expired or invalid")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrAdminDisabled      = errors.New("admin login is disabled")
	ErrTokenCollision     = errors.New("session token collision")
)
