package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/frontdesk-core/internal/audit"
	"github.com/nerrad567/frontdesk-core/internal/auth"
	"github.com/nerrad567/frontdesk-core/internal/infrastructure/config"
	"github.com/nerrad567/frontdesk-core/internal/infrastructure/database"
	"github.com/nerrad567/frontdesk-core/internal/infrastructure/logging"
	"github.com/nerrad567/frontdesk-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/frontdesk-core/internal/records"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// EventPublisher receives authentication events. *mqtt.Client implements it.
type EventPublisher interface {
	PublishAuthEvent(ev mqtt.AuthEvent) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config        *config.Config
	Logger        *logging.Logger
	DB            *database.DB
	Sessions      *auth.SessionManager
	Authenticator *auth.Authenticator
	Directory     *auth.Directory
	Gate          *auth.Gate
	Records       records.Repository
	AuditRepo     audit.Repository
	Metrics       *Metrics       // optional; a private registry is created when nil
	Events        EventPublisher // optional
	Version       string
}

// Server is the Frontdesk HTTP API server.
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
type Server struct {
	cfg       *config.Config
	logger    *logging.Logger
	db        *database.DB
	sessions  *auth.SessionManager
	authn     *auth.Authenticator
	directory *auth.Directory
	gate      *auth.Gate
	records   records.Repository
	auditRepo audit.Repository
	metrics   *Metrics
	events    EventPublisher
	version   string
	startTime time.Time

	auditCh   chan *audit.AuditLog
	drainDone chan struct{}
	server    *http.Server
	cancel    context.CancelFunc
	handler   http.Handler
}

// New creates a new API server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Config == nil:
		return nil, fmt.Errorf("config is required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case deps.Sessions == nil || deps.Authenticator == nil || deps.Directory == nil || deps.Gate == nil:
		return nil, fmt.Errorf("auth components are required")
	case deps.Records == nil:
		return nil, fmt.Errorf("records repository is required")
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	s := &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		db:        deps.DB,
		sessions:  deps.Sessions,
		authn:     deps.Authenticator,
		directory: deps.Directory,
		gate:      deps.Gate,
		records:   deps.Records,
		auditRepo: deps.AuditRepo,
		metrics:   metrics,
		events:    deps.Events,
		version:   deps.Version,
		startTime: time.Now(),
		auditCh:   make(chan *audit.AuditLog, auditChanSize),
	}
	s.handler = s.buildRouter()

	return s, nil
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start launches the audit writer and the HTTP listener in the background.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	s.startAuditWriter(srvCtx)

	api := s.cfg.API
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", api.Host, api.Port),
		Handler:           s.handler,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		var err error
		if api.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr, "cert", api.TLS.CertFile)
			err = s.server.ListenAndServeTLS(api.TLS.CertFile, api.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// startAuditWriter runs the audit/event drain until ctx is cancelled.
func (s *Server) startAuditWriter(ctx context.Context) {
	s.drainDone = make(chan struct{})
	go func() {
		defer close(s.drainDone)
		s.drainAuditLog(ctx)
	}()
}

// Close shuts the listener down gracefully, then flushes queued audit entries.
func (s *Server) Close() error {
	var shutdownErr error
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		s.logger.Info("API server shutting down")
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("shutting down API server: %w", err)
		}
	}

	if s.cancel != nil {
		s.cancel()
	}
	if s.drainDone != nil {
		<-s.drainDone
	}
	return shutdownErr
}

// HealthCheck verifies the database is reachable.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.db == nil {
		return nil
	}
	if err := s.db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	return nil
}
