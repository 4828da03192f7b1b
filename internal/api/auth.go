package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/frontdesk-core/internal/audit"
	"github.com/nerrad567/frontdesk-core/internal/auth"
	"github.com/nerrad567/frontdesk-core/internal/infrastructure/logging"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (req *loginRequest) validate() error {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return errors.New("username and password are required")
	}
	return nil
}

// adminLoginRequest is the request body for POST /auth/admin-login.
type adminLoginRequest struct {
	AdminPassword string `json:"adminPassword"`
}

func (req *adminLoginRequest) validate() error {
	if req.AdminPassword == "" {
		return errors.New("admin password is required")
	}
	return nil
}

// loginResponse is returned by both login endpoints.
type loginResponse struct {
	Message string         `json:"message"`
	User    auth.Principal `json:"user"`
}

// handleLogin authenticates a receptionist and issues a session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	user, err := s.authn.AuthenticateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.auditLog(audit.ActionLoginFailed, audit.EntitySession, "", "", map[string]any{
				"username": req.Username,
			})
			writeUnauthorized(w, "invalid credentials")
			return
		}
		s.writeDomainError(w, r, "login", err)
		return
	}

	s.startSession(w, r, user, audit.ActionLogin, "Login successful")
}

// handleAdminLogin checks the shared admin secret and issues a session for
// the singleton admin account.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	admin, err := s.authn.LoginAdmin(r.Context(), req.AdminPassword)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrAdminDisabled) {
			s.auditLog(audit.ActionLoginFailed, audit.EntitySession, "", "", map[string]any{
				"username": auth.AdminUsername,
				"role":     string(auth.RoleAdmin),
			})
			writeUnauthorized(w, "invalid credentials")
			return
		}
		s.writeDomainError(w, r, "admin login", err)
		return
	}

	s.startSession(w, r, admin, audit.ActionAdminLogin, "Admin login successful")
}

// startSession mints a session for user, sets the cookie and writes the
// login response.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user *auth.User, action, message string) {
	session, err := s.sessions.Create(r.Context(), user.ID)
	if err != nil {
		s.writeDomainError(w, r, "creating session", err)
		return
	}

	s.setSessionCookie(w, session.Token)
	s.auditLog(action, audit.EntitySession, session.ID, user.ID, map[string]any{
		"username": user.Username,
		"role":     string(user.Role),
	})
	s.logger.Info("session created",
		"user_id", user.ID,
		"role", user.Role,
		"token_prefix", logging.TokenPrefix(session.Token),
	)

	writeJSON(w, http.StatusOK, loginResponse{
		Message: message,
		User: auth.Principal{
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
		},
	})
}

// handleLogout deletes the caller's session, if any, and clears the cookie.
// It succeeds whether or not a session existed.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := sessionTokenFromRequest(r)
	if token != "" {
		session, err := s.sessions.Get(r.Context(), token)
		if err != nil {
			s.writeDomainError(w, r, "logout", err)
			return
		}
		if err := s.sessions.Delete(r.Context(), token); err != nil {
			s.writeDomainError(w, r, "logout", err)
			return
		}
		if session != nil {
			details := map[string]any{}
			if session.User != nil {
				details["username"] = session.User.Username
				details["role"] = string(session.User.Role)
			}
			s.auditLog(audit.ActionLogout, audit.EntitySession, session.ID, session.UserID, details)
		}
	}

	s.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "Logout successful")
}

// meResponse is the caller's identity plus what their role allows.
type meResponse struct {
	*auth.Principal
	Permissions []auth.Permission `json:"permissions"`
}

// handleMe returns the authenticated caller.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	if principal == nil {
		writeUnauthorized(w, "unauthorised")
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		Principal:   principal,
		Permissions: auth.PermissionsForRole(principal.Role),
	})
}
