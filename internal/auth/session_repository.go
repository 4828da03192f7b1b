package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/frontdesk-core/internal/infrastructure/database"
)

// SessionRepository defines the interface for session persistence.
// Raw tokens never reach the store; every method takes the token digest.
type SessionRepository interface {
	// Create inserts a session. A duplicate token digest returns
	// ErrTokenCollision and leaves the existing row untouched.
	Create(ctx context.Context, session *Session, tokenHash string) error

	// GetByTokenHash returns the session joined with its user, or
	// ErrSessionInvalid when no row matches. Session.User is nil if the
	// owning account no longer exists.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// DeleteByTokenHash removes at most one row. No match is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteExpired removes sessions whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// CountActive returns the number of sessions still valid at now.
	CountActive(ctx context.Context, now time.Time) (int, error)
}

// SQLiteSessionRepository implements SessionRepository using SQLite.
type SQLiteSessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SQLite-backed session repository.
func NewSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

// HashToken computes the SHA-256 hash of a raw token string for storage.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// Create inserts a new session. The ID and CreatedAt are generated if empty.
func (r *SQLiteSessionRepository) Create(ctx context.Context, session *Session, tokenHash string) error {
	if session.ID == "" {
		session.ID = "ses-" + uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.UserID, tokenHash,
		session.ExpiresAt.UTC().Format(time.RFC3339),
		session.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrTokenCollision
		}
		if database.IsForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("creating session: %w", err)
	}

	return nil
}

// GetByTokenHash retrieves a session and its owning user by token digest.
func (r *SQLiteSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	var s Session
	var expiresAt, createdAt string
	var userID, username, passwordHash, role, userCreatedAt, userUpdatedAt sql.NullString
	var isActive sql.NullInt64

	err := r.db.QueryRowContext(ctx,
		`SELECT s.id, s.user_id, s.expires_at, s.created_at,
		        u.id, u.username, u.password_hash, u.role, u.is_active, u.created_at, u.updated_at
		 FROM sessions s
		 LEFT JOIN users u ON u.id = s.user_id
		 WHERE s.token_hash = ?`, tokenHash,
	).Scan(&s.ID, &s.UserID, &expiresAt, &createdAt,
		&userID, &username, &passwordHash, &role, &isActive, &userCreatedAt, &userUpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}

	s.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt) //nolint:errcheck // format is controlled
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled

	if userID.Valid {
		u := &User{
			ID:           userID.String,
			Username:     username.String,
			PasswordHash: passwordHash.String,
			Role:         Role(role.String),
			IsActive:     isActive.Int64 != 0,
		}
		u.CreatedAt, _ = time.Parse(time.RFC3339, userCreatedAt.String) //nolint:errcheck // format is controlled
		u.UpdatedAt, _ = time.Parse(time.RFC3339, userUpdatedAt.String) //nolint:errcheck // format is controlled
		s.User = u
	}

	return &s, nil
}

// DeleteByTokenHash removes the session with the given token digest.
func (r *SQLiteSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token_hash = ?", tokenHash); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that have expired, freeing storage.
// Returns the number of deleted rows.
func (r *SQLiteSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= ?", now.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	count, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return count, nil
}

// CountActive returns the number of unexpired sessions.
func (r *SQLiteSessionRepository) CountActive(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE expires_at > ?", now.UTC().Format(time.RFC3339),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return count, nil
}
