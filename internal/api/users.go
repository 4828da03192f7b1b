package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/frontdesk-core/internal/audit"
	"github.com/nerrad567/frontdesk-core/internal/auth"
)

// createUserRequest is the request body for POST /auth/users.
type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (req *createUserRequest) validate() error {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return errors.New("username and password are required")
	}
	return nil
}

// setActiveRequest is the request body for PATCH /auth/users.
type setActiveRequest struct {
	ID       string `json:"id"`
	IsActive *bool  `json:"isActive"`
}

func (req *setActiveRequest) validate() error {
	if req.ID == "" || req.IsActive == nil {
		return errors.New("id and isActive are required")
	}
	return nil
}

// handleListUsers returns all receptionist accounts.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.directory.ListByRole(r.Context(), auth.RoleReceptionist)
	if err != nil {
		s.writeDomainError(w, r, "listing users", err)
		return
	}
	if users == nil {
		users = []auth.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// handleCreateUser creates a receptionist account.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	user, err := s.directory.Create(r.Context(), req.Username, req.Password, auth.RoleReceptionist)
	if err != nil {
		s.writeDomainError(w, r, "creating user", err)
		return
	}

	s.auditLog(audit.ActionCreate, audit.EntityUser, user.ID, principalID(r.Context()), map[string]any{
		"username": user.Username,
	})
	writeJSON(w, http.StatusCreated, user)
}

// handleSetUserActive activates or deactivates an account. Deactivated users'
// sessions are refused by the gate from the next request on.
func (s *Server) handleSetUserActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	user, err := s.directory.SetActive(r.Context(), req.ID, *req.IsActive)
	if err != nil {
		s.writeDomainError(w, r, "updating user", err)
		return
	}

	s.auditLog(audit.ActionUpdate, audit.EntityUser, user.ID, principalID(r.Context()), map[string]any{
		"isActive": user.IsActive,
	})
	writeJSON(w, http.StatusOK, user)
}

// handleDeleteUser deletes the account named by the id query parameter.
// Its sessions go with it.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeValidationError(w, "id is required")
		return
	}

	if err := s.directory.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, r, "deleting user", err)
		return
	}

	s.auditLog(audit.ActionDelete, audit.EntityUser, id, principalID(r.Context()), nil)
	writeMessage(w, http.StatusOK, "User deleted successfully")
}
