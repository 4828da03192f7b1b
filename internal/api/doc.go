// Package api implements the Frontdesk HTTP API.
//
// This package provides:
//   - Session login for receptionists and the shared-secret admin login
//   - Receptionist account management (admin only)
//   - Customer, custom field and note CRUD
//   - The audit trail (admin only)
//   - Health, JSON metrics and Prometheus exposition
//
// # Security
//
// Sessions are opaque random tokens stored hashed in SQLite. The token is
// carried in the HttpOnly session-token cookie or an Authorization: Bearer
// header. Every protected route goes through auth.Gate, which rejects
// expired sessions, sessions of deleted or deactivated users and callers
// lacking the required role. Authorisation failures answer 401 with the
// same body as authentication failures.
//
// # Side effects
//
// Audit entries and MQTT auth events are queued on a bounded channel and
// written by a single goroutine; a full queue drops the entry rather than
// slowing the request.
package api
