package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/frontdesk-core/internal/audit"
	"github.com/nerrad567/frontdesk-core/internal/records"
)

// createCustomerRequest is the request body for POST /customers.
type createCustomerRequest struct {
	Name         string               `json:"name"`
	Phone        string               `json:"phone"`
	Email        *string              `json:"email"`
	CustomFields records.CustomFields `json:"customFields"`
}

func (req *createCustomerRequest) customer() *records.Customer {
	return &records.Customer{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		CustomFields: req.CustomFields,
	}
}

// handleListCustomers returns every customer, newest first.
func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.records.ListCustomers(r.Context())
	if err != nil {
		s.writeDomainError(w, r, "listing customers", err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

// handleCreateCustomer creates a customer.
func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	customer := req.customer()
	if err := s.records.CreateCustomer(r.Context(), customer); err != nil {
		s.writeDomainError(w, r, "creating customer", err)
		return
	}

	s.auditLog(audit.ActionCreate, audit.EntityCustomer, customer.ID, principalID(r.Context()), map[string]any{
		"name": customer.Name,
	})
	writeJSON(w, http.StatusCreated, customer)
}

// handleGetCustomer returns a single customer.
func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := s.records.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, "getting customer", err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// handleUpdateCustomer applies a partial update: only the supplied
// attributes change.
func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch records.CustomerPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	customer, err := s.records.UpdateCustomer(r.Context(), id, patch)
	if err != nil {
		s.writeDomainError(w, r, "updating customer", err)
		return
	}

	s.auditLog(audit.ActionUpdate, audit.EntityCustomer, id, principalID(r.Context()), nil)
	writeJSON(w, http.StatusOK, customer)
}

// handleDeleteCustomer deletes a customer and its notes.
func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.records.DeleteCustomer(r.Context(), id); err != nil {
		s.writeDomainError(w, r, "deleting customer", err)
		return
	}

	s.auditLog(audit.ActionDelete, audit.EntityCustomer, id, principalID(r.Context()), nil)
	writeMessage(w, http.StatusOK, "Customer deleted successfully")
}
