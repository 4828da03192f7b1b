package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsQueryTimeout bounds the store queries behind GET /metrics.
const metricsQueryTimeout = 2 * time.Second

// Metrics holds the Prometheus collectors fed by the auth components'
// callbacks. Its methods match the auth On* hook signatures.
type Metrics struct {
	registry *prometheus.Registry

	authAttempts    *prometheus.CounterVec
	sessionsCreated prometheus.Counter
	sessionsExpired prometheus.Counter
	sessionsSwept   prometheus.Counter
	denied          *prometheus.CounterVec
}

// NewMetrics registers the Frontdesk collectors, plus Go runtime and process
// collectors, on reg. A nil reg gets a fresh registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frontdesk_auth_attempts_total",
			Help: "Login attempts by kind (user, admin) and outcome (success, failure, error).",
		}, []string{"kind", "outcome"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_sessions_created_total",
			Help: "Sessions issued.",
		}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_sessions_expired_total",
			Help: "Expired sessions removed on lookup.",
		}),
		sessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frontdesk_sessions_swept_total",
			Help: "Expired sessions removed by the janitor.",
		}),
		denied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frontdesk_authorization_denied_total",
			Help: "Requests refused by the authorisation gate, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.authAttempts, m.sessionsCreated, m.sessionsExpired, m.sessionsSwept, m.denied,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// AuthAttempt counts one login attempt.
func (m *Metrics) AuthAttempt(kind, outcome string) {
	m.authAttempts.WithLabelValues(kind, outcome).Inc()
}

// SessionCreated counts one issued session.
func (m *Metrics) SessionCreated() { m.sessionsCreated.Inc() }

// SessionExpired counts one session removed lazily on lookup.
func (m *Metrics) SessionExpired() { m.sessionsExpired.Inc() }

// SessionsSwept adds a janitor run's deletions.
func (m *Metrics) SessionsSwept(n int64) { m.sessionsSwept.Add(float64(n)) }

// AuthorizationDenied counts one gate refusal.
func (m *Metrics) AuthorizationDenied(reason string) {
	m.denied.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SystemMetrics represents the JSON metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	Sessions      SessionMetrics  `json:"sessions"`
	Users         UserMetrics     `json:"users"`
	Database      DatabaseMetrics `json:"database"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// SessionMetrics contains session store statistics.
type SessionMetrics struct {
	Active int `json:"active"`
}

// UserMetrics contains account statistics.
type UserMetrics struct {
	Total int `json:"total"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns runtime, session and database statistics as JSON.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
	}

	ctx, cancel := context.WithTimeout(r.Context(), metricsQueryTimeout)
	defer cancel()
	if active, err := s.sessions.CountActive(ctx); err == nil {
		metrics.Sessions.Active = active
	} else {
		s.logger.Warn("counting active sessions failed", "error", err)
	}
	if total, err := s.directory.Count(ctx); err == nil {
		metrics.Users.Total = total
	} else {
		s.logger.Warn("counting users failed", "error", err)
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
