package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/frontdesk-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware())
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Unauthenticated
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Handle("/metrics/prometheus", s.metrics.Handler())

		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/admin-login", s.handleAdminLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.With(s.require(auth.RequireSession)).Get("/auth/me", s.handleMe)

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(s.require(auth.RequireAdmin))

			r.Get("/auth/users", s.handleListUsers)
			r.Post("/auth/users", s.handleCreateUser)
			r.Patch("/auth/users", s.handleSetUserActive)
			r.Delete("/auth/users", s.handleDeleteUser)
		})
		r.With(s.require(auth.RequirePermission(auth.PermAuditRead))).Get("/audit", s.handleListAuditLogs)

		// Customer records
		r.Route("/customers", func(r chi.Router) {
			r.With(s.require(auth.RequirePermission(auth.PermRecordsRead))).Get("/", s.handleListCustomers)
			r.With(s.require(auth.RequirePermission(auth.PermRecordsWrite))).Post("/", s.handleCreateCustomer)

			r.Route("/{id}", func(r chi.Router) {
				r.With(s.require(auth.RequirePermission(auth.PermRecordsRead))).Get("/", s.handleGetCustomer)
				r.With(s.require(auth.RequirePermission(auth.PermRecordsWrite))).Put("/", s.handleUpdateCustomer)
				r.With(s.require(auth.RequirePermission(auth.PermRecordsWrite))).Delete("/", s.handleDeleteCustomer)
			})
		})

		r.Route("/fields", func(r chi.Router) {
			r.With(s.require(auth.RequirePermission(auth.PermRecordsRead))).Get("/", s.handleListFields)

			r.Group(func(r chi.Router) {
				r.Use(s.require(auth.RequirePermission(auth.PermFieldsManage)))
				r.Post("/", s.handleCreateField)
				r.Put("/{id}", s.handleUpdateField)
				r.Delete("/{id}", s.handleDeleteField)
			})
		})

		r.Route("/notes", func(r chi.Router) {
			r.With(s.require(auth.RequirePermission(auth.PermRecordsRead))).Get("/", s.handleListNotes)

			r.Group(func(r chi.Router) {
				r.Use(s.require(auth.RequirePermission(auth.PermRecordsWrite)))
				r.Post("/", s.handleCreateNote)
				r.Delete("/{id}", s.handleDeleteNote)
			})
		})
	})

	return r
}

// handleHealth returns the server health status. The database is pinged;
// a failed ping answers 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.HealthCheck(r.Context()); err != nil {
		s.logger.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "unavailable",
			"version": s.version,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
