package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/frontdesk-core/internal/infrastructure/logging"
)

const (
	// DefaultSessionTTL is the session lifetime when none is configured.
	DefaultSessionTTL = 24 * time.Hour

	// sessionTokenBytes gives 256 bits of entropy per token.
	sessionTokenBytes = 32

	// maxTokenAttempts bounds token regeneration after a collision.
	maxTokenAttempts = 3
)

// Logger defines the logging interface used by auth components.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// GenerateSessionToken returns 32 bytes from crypto/rand, hex encoded.
func GenerateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SessionManagerConfig configures a SessionManager.
type SessionManagerConfig struct {
	// TTL is the session lifetime. Zero means DefaultSessionTTL.
	TTL time.Duration

	// Now returns the current time. Nil means time.Now.
	Now func() time.Time

	// GenerateToken produces raw session tokens. Nil means GenerateSessionToken.
	GenerateToken func() (string, error)

	// OnCreated is called after a session is persisted.
	OnCreated func()

	// OnExpired is called when a lookup finds an expired session and removes it.
	OnExpired func()
}

// SessionManager issues, validates and revokes sessions.
//
// Expiry is enforced lazily: a lookup that observes an expired session
// deletes it before reporting it as absent.
type SessionManager struct {
	repo   SessionRepository
	cfg    SessionManagerConfig
	logger Logger
}

// NewSessionManager creates a session manager backed by repo.
func NewSessionManager(repo SessionRepository, cfg SessionManagerConfig) *SessionManager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.GenerateToken == nil {
		cfg.GenerateToken = GenerateSessionToken
	}

	return &SessionManager{
		repo:   repo,
		cfg:    cfg,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the session manager.
func (m *SessionManager) SetLogger(logger Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.cfg.TTL
}

// Create issues a new session for userID. The returned Session carries the
// raw token; it is the only place the raw value ever exists server-side.
func (m *SessionManager) Create(ctx context.Context, userID string) (*Session, error) {
	now := m.cfg.Now().UTC().Truncate(time.Second)

	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token, err := m.cfg.GenerateToken()
		if err != nil {
			return nil, err
		}

		session := &Session{
			UserID:    userID,
			Token:     token,
			ExpiresAt: now.Add(m.cfg.TTL),
			CreatedAt: now,
		}

		err = m.repo.Create(ctx, session, HashToken(token))
		if errors.Is(err, ErrTokenCollision) {
			m.logger.Warn("session token collision, regenerating", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}

		m.logger.Debug("session created",
			"session_id", session.ID,
			"user_id", userID,
			"token", logging.TokenPrefix(token),
			"expires_at", session.ExpiresAt,
		)
		if m.cfg.OnCreated != nil {
			m.cfg.OnCreated()
		}
		return session, nil
	}

	return nil, ErrTokenCollision
}

// Get returns the valid session for token, or nil if there is none.
//
// An empty token returns nil without touching the store. A session whose
// expiry is at or before now is deleted and reported as absent; if that
// delete fails the store error is returned.
func (m *SessionManager) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}

	tokenHash := HashToken(token)
	session, err := m.repo.GetByTokenHash(ctx, tokenHash)
	if errors.Is(err, ErrSessionInvalid) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up session: %w", err)
	}

	if !session.ExpiresAt.After(m.cfg.Now()) {
		if err := m.repo.DeleteByTokenHash(ctx, tokenHash); err != nil {
			return nil, fmt.Errorf("deleting expired session: %w", err)
		}
		m.logger.Debug("expired session deleted", "session_id", session.ID)
		if m.cfg.OnExpired != nil {
			m.cfg.OnExpired()
		}
		return nil, nil
	}

	return session, nil
}

// Delete removes the session for token. Deleting an unknown or empty token succeeds.
func (m *SessionManager) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.repo.DeleteByTokenHash(ctx, HashToken(token))
}

// DeleteExpired removes every session that has expired by now.
func (m *SessionManager) DeleteExpired(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpired(ctx, m.cfg.Now())
}

// CountActive returns the number of currently valid sessions.
func (m *SessionManager) CountActive(ctx context.Context) (int, error) {
	return m.repo.CountActive(ctx, m.cfg.Now())
}
