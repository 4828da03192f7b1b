package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/frontdesk-core/internal/audit"
	"github.com/nerrad567/frontdesk-core/internal/infrastructure/mqtt"
)

// auditChanSize is the buffer size for the async audit log channel.
// Entries beyond this are dropped (best-effort) to avoid back-pressure on requests.
const auditChanSize = 256

// auditLog enqueues an audit log entry for asynchronous write (best-effort).
// If the channel is full the entry is dropped and a warning is logged.
func (s *Server) auditLog(action, entityType, entityID, userID string, details map[string]any) {
	if s.auditRepo == nil && s.events == nil {
		return
	}

	entry := &audit.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     userID,
		Source:     "api",
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}

	select {
	case s.auditCh <- entry:
	default:
		s.logger.Warn("audit log channel full, dropping entry",
			"action", action,
			"entity_type", entityType,
		)
	}
}

// drainAuditLog reads entries from the audit channel and handles them
// serially, which suits SQLite's single-writer model. It runs until ctx is
// cancelled, then drains what is left.
func (s *Server) drainAuditLog(ctx context.Context) {
	for {
		select {
		case entry := <-s.auditCh:
			s.handleAuditEntry(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-s.auditCh:
					s.handleAuditEntry(entry)
				default:
					return
				}
			}
		}
	}
}

// handleAuditEntry persists entry and, for session events, publishes it to
// the event bus. Failures are logged only.
func (s *Server) handleAuditEntry(entry *audit.AuditLog) {
	if s.auditRepo != nil {
		if err := s.auditRepo.Create(context.Background(), entry); err != nil {
			s.logger.Error("audit log write failed",
				"action", entry.Action,
				"entity_type", entry.EntityType,
				"error", err,
			)
		}
	}

	if s.events == nil || entry.EntityType != audit.EntitySession {
		return
	}
	ev := mqtt.AuthEvent{
		Action:    entry.Action,
		UserID:    entry.UserID,
		Username:  detailString(entry.Details, "username"),
		Role:      detailString(entry.Details, "role"),
		Timestamp: entry.CreatedAt,
	}
	if err := s.events.PublishAuthEvent(ev); err != nil {
		s.logger.Warn("auth event publish failed", "action", entry.Action, "error", err)
	}
}

func detailString(details map[string]any, key string) string {
	v, _ := details[key].(string) //nolint:errcheck // type assertion, not an error
	return v
}

// handleListAuditLogs returns paginated audit log entries with optional filters.
//
// Query parameters:
//   - action: login, login_failed, admin_login, logout, create, update, delete
//   - entityType: session, user, customer, field, note
//   - entityId, userId: exact match
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeInternalError(w, "audit logging not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
		UserID:     q.Get("userId"),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, r, "listing audit logs", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
