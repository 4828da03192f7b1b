package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/frontdesk-core/internal/audit"
	"github.com/nerrad567/frontdesk-core/internal/records"
)

type createNoteRequest struct {
	Content    string `json:"content"`
	CustomerID string `json:"customerId"`
}

// handleListNotes returns the notes of the customer given by ?customerId=.
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customerId")
	if customerID == "" {
		writeValidationError(w, "customerId is required")
		return
	}

	notes, err := s.records.ListNotes(r.Context(), customerID)
	if err != nil {
		s.writeDomainError(w, r, "listing notes", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	note := &records.Note{Content: req.Content, CustomerID: req.CustomerID}
	if err := s.records.CreateNote(r.Context(), note); err != nil {
		s.writeDomainError(w, r, "creating note", err)
		return
	}

	s.auditLog(audit.ActionCreate, audit.EntityNote, note.ID, principalID(r.Context()), map[string]any{
		"customerId": note.CustomerID,
	})
	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.records.DeleteNote(r.Context(), id); err != nil {
		s.writeDomainError(w, r, "deleting note", err)
		return
	}

	s.auditLog(audit.ActionDelete, audit.EntityNote, id, principalID(r.Context()), nil)
	writeMessage(w, http.StatusOK, "Note deleted successfully")
}
