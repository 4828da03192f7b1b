package auth

import (
	"context"
	"fmt"
)

// Denial reasons reported to GateConfig.OnDenied.
const (
	DenyNoSession = "no_session"
	DenyInvalid   = "invalid_session"
	DenyNoUser    = "user_missing"
	DenyInactive  = "user_inactive"
	DenyForbidden = "forbidden"
)

// Requirement is what an operation demands of the caller beyond a valid session.
type Requirement struct {
	role Role
	perm Permission
}

var (
	// RequireSession admits any valid session of an active user.
	RequireSession = Requirement{}

	// RequireAdmin additionally demands the admin role.
	RequireAdmin = Requirement{role: RoleAdmin}
)

// RequirePermission demands a role that grants perm.
func RequirePermission(perm Permission) Requirement {
	return Requirement{perm: perm}
}

// GateConfig configures a Gate.
type GateConfig struct {
	// OnDenied is called with a reason each time a request is refused.
	OnDenied func(reason string)
}

// Gate authorises requests from the session token they carry.
// It holds no per-request state and is safe for concurrent use.
type Gate struct {
	sessions *SessionManager
	onDenied func(reason string)
}

// NewGate creates an authorisation gate over sessions.
func NewGate(sessions *SessionManager, cfg GateConfig) *Gate {
	return &Gate{
		sessions: sessions,
		onDenied: cfg.OnDenied,
	}
}

// Authorize resolves token to a principal and checks req.
//
// Missing, unknown or expired sessions, and sessions whose user has been
// deleted or deactivated, return ErrSessionInvalid. A valid session that
// does not meet req returns ErrForbidden. Store failures are returned wrapped.
func (g *Gate) Authorize(ctx context.Context, token string, req Requirement) (*Principal, error) {
	if token == "" {
		g.deny(DenyNoSession)
		return nil, ErrSessionInvalid
	}

	session, err := g.sessions.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("authorising request: %w", err)
	}
	if session == nil {
		g.deny(DenyInvalid)
		return nil, ErrSessionInvalid
	}

	user := session.User
	switch {
	case user == nil:
		g.deny(DenyNoUser)
		return nil, ErrSessionInvalid
	case !user.IsActive:
		g.deny(DenyInactive)
		return nil, ErrSessionInvalid
	}

	principal := &Principal{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		SessionID: session.ID,
	}
	if (req.role != "" && user.Role != req.role) || (req.perm != "" && !principal.Can(req.perm)) {
		g.deny(DenyForbidden)
		return nil, ErrForbidden
	}

	return principal, nil
}

func (g *Gate) deny(reason string) {
	if g.onDenied != nil {
		g.onDenied(reason)
	}
}
