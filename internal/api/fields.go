package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/frontdesk-core/internal/audit"
	"github.com/nerrad567/frontdesk-core/internal/records"
)

// fieldRequest is the request body for POST /fields and PUT /fields/{id}.
// PUT replaces every attribute, so the same required fields apply.
type fieldRequest struct {
	Name     string            `json:"name"`
	Label    string            `json:"label"`
	Type     records.FieldType `json:"type"`
	Required bool              `json:"required"`
	Options  []string          `json:"options"`
	Order    int               `json:"order"`
}

func (req *fieldRequest) definition(id string) *records.FieldDefinition {
	return &records.FieldDefinition{
		ID:       id,
		Name:     req.Name,
		Label:    req.Label,
		Type:     req.Type,
		Required: req.Required,
		Options:  req.Options,
		Order:    req.Order,
	}
}

// handleListFields returns the field definitions in display order.
func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	fields, err := s.records.ListFields(r.Context())
	if err != nil {
		s.writeDomainError(w, r, "listing fields", err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// handleCreateField adds a custom field definition.
func (s *Server) handleCreateField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	field := req.definition("")
	if err := s.records.CreateField(r.Context(), field); err != nil {
		s.writeDomainError(w, r, "creating field", err)
		return
	}

	s.auditLog(audit.ActionCreate, audit.EntityField, field.ID, principalID(r.Context()), map[string]any{
		"name": field.Name,
	})
	writeJSON(w, http.StatusCreated, field)
}

// handleUpdateField replaces a field definition.
func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	field := req.definition(chi.URLParam(r, "id"))
	if err := s.records.UpdateField(r.Context(), field); err != nil {
		s.writeDomainError(w, r, "updating field", err)
		return
	}

	s.auditLog(audit.ActionUpdate, audit.EntityField, field.ID, principalID(r.Context()), map[string]any{
		"name": field.Name,
	})
	writeJSON(w, http.StatusOK, field)
}

// handleDeleteField removes a field definition. Stored customer values
// under its name are kept.
func (s *Server) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.records.DeleteField(r.Context(), id); err != nil {
		s.writeDomainError(w, r, "deleting field", err)
		return
	}

	s.auditLog(audit.ActionDelete, audit.EntityField, id, principalID(r.Context()), nil)
	writeMessage(w, http.StatusOK, "Field deleted successfully")
}
