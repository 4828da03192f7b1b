package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
)

// Attempt kinds and outcomes reported to AuthenticatorConfig.OnAttempt.
const (
	AttemptUser  = "user"
	AttemptAdmin = "admin"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// AuthenticatorConfig configures an Authenticator.
type AuthenticatorConfig struct {
	// AdminSecret is the shared admin password. Empty disables admin login.
	AdminSecret string

	// OnAttempt is called once per authentication attempt.
	OnAttempt func(kind, outcome string)
}

// Authenticator verifies user credentials and the admin shared secret.
type Authenticator struct {
	users        UserRepository
	adminDigest  [sha256.Size]byte
	adminEnabled bool
	onAttempt    func(kind, outcome string)
	logger       Logger
}

// NewAuthenticator creates an authenticator. Only a digest of the admin
// secret is retained.
func NewAuthenticator(users UserRepository, cfg AuthenticatorConfig) *Authenticator {
	a := &Authenticator{
		users:        users,
		adminEnabled: cfg.AdminSecret != "",
		onAttempt:    cfg.OnAttempt,
		logger:       noopLogger{},
	}
	if a.adminEnabled {
		a.adminDigest = sha256.Sum256([]byte(cfg.AdminSecret))
	}
	return a
}

// SetLogger sets the logger for the authenticator.
func (a *Authenticator) SetLogger(logger Logger) {
	if logger != nil {
		a.logger = logger
	}
}

// AdminEnabled reports whether an admin secret is configured.
func (a *Authenticator) AdminEnabled() bool {
	return a.adminEnabled
}

// AuthenticateUser checks a username and password.
//
// Unknown user, inactive user and wrong password all return
// ErrInvalidCredentials. Store failures are returned wrapped.
func (a *Authenticator) AuthenticateUser(ctx context.Context, username, password string) (*User, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		verifyDummy(password)
		a.record(AttemptUser, OutcomeFailure)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		a.record(AttemptUser, OutcomeError)
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		a.logger.Warn("stored password hash is unreadable", "user_id", user.ID, "error", err)
		ok = false
	}

	if !ok || !user.IsActive {
		a.record(AttemptUser, OutcomeFailure)
		return nil, ErrInvalidCredentials
	}

	if IsLegacyHash(user.PasswordHash) {
		a.upgradeHash(ctx, user, password)
	}

	a.record(AttemptUser, OutcomeSuccess)
	return user, nil
}

// upgradeHash rewrites a verified legacy PBKDF2 hash as Argon2id. Failure
// leaves the legacy hash in place; the login still succeeds.
func (a *Authenticator) upgradeHash(ctx context.Context, user *User, password string) {
	hash, err := HashPassword(password)
	if err == nil {
		err = a.users.UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		a.logger.Warn("upgrading legacy password hash failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
	a.logger.Info("legacy password hash upgraded", "user_id", user.ID)
}

// AuthenticateAdmin compares provided against the configured admin secret in
// constant time. It always returns false when admin login is disabled.
func (a *Authenticator) AuthenticateAdmin(provided string) bool {
	providedDigest := sha256.Sum256([]byte(provided))
	match := subtle.ConstantTimeCompare(providedDigest[:], a.adminDigest[:]) == 1
	return a.adminEnabled && match
}

// BootstrapAdmin returns the singleton admin account, creating it on first
// use. The account has an unusable password hash: it is reachable only
// through the shared-secret path.
func (a *Authenticator) BootstrapAdmin(ctx context.Context) (*User, error) {
	admin, err := a.users.FindOrCreateAdmin(ctx, &User{
		Username:     AdminUsername,
		PasswordHash: UnusablePasswordHash,
		Role:         RoleAdmin,
		IsActive:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrapping admin: %w", err)
	}
	return admin, nil
}

// LoginAdmin verifies the admin secret and returns the admin account.
func (a *Authenticator) LoginAdmin(ctx context.Context, secret string) (*User, error) {
	if !a.adminEnabled {
		a.record(AttemptAdmin, OutcomeFailure)
		return nil, ErrAdminDisabled
	}
	if !a.AuthenticateAdmin(secret) {
		a.record(AttemptAdmin, OutcomeFailure)
		return nil, ErrInvalidCredentials
	}

	admin, err := a.BootstrapAdmin(ctx)
	if err != nil {
		a.record(AttemptAdmin, OutcomeError)
		return nil, err
	}
	if !admin.IsActive {
		a.record(AttemptAdmin, OutcomeFailure)
		return nil, ErrInvalidCredentials
	}

	a.record(AttemptAdmin, OutcomeSuccess)
	return admin, nil
}

func (a *Authenticator) record(kind, outcome string) {
	if a.onAttempt != nil {
		a.onAttempt(kind, outcome)
	}
}
