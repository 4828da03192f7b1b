package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

type gateFixture struct {
	db       *sql.DB
	gate     *Gate
	sessions *SessionManager
	users    *SQLiteUserRepository
	clock    *fakeClock
	denials  []string
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	db := testDB(t)
	f := &gateFixture{
		db:    db,
		users: NewUserRepository(db),
		clock: newFakeClock(),
	}
	f.sessions = NewSessionManager(NewSessionRepository(db), SessionManagerConfig{Now: f.clock.Now})
	f.gate = NewGate(f.sessions, GateConfig{
		OnDenied: func(reason string) { f.denials = append(f.denials, reason) },
	})
	return f
}

func (f *gateFixture) login(t *testing.T, user *User) string {
	t.Helper()
	s, err := f.sessions.Create(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}
	return s.Token
}

func (f *gateFixture) lastDenial() string {
	if len(f.denials) == 0 {
		return ""
	}
	return f.denials[len(f.denials)-1]
}

func TestGate_AuthorizeReceptionist(t *testing.T) {
	f := newGateFixture(t)
	alice := seedTestUser(t, f.db, "alice", RoleReceptionist)
	token := f.login(t, alice)
	ctx := context.Background()

	p, err := f.gate.Authorize(ctx, token, RequireSession)
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if p.UserID != alice.ID || p.Username != "alice" || p.Role != RoleReceptionist {
		t.Errorf("Principal = %+v, want alice/receptionist", p)
	}
	if p.SessionID == "" {
		t.Error("Principal should carry the session id")
	}

	if _, err := f.gate.Authorize(ctx, token, RequirePermission(PermFieldsManage)); err != nil {
		t.Errorf("receptionist should manage fields: %v", err)
	}

	if _, err := f.gate.Authorize(ctx, token, RequireAdmin); !errors.Is(err, ErrForbidden) {
		t.Errorf("Authorize(RequireAdmin) error = %v, want ErrForbidden", err)
	}
	if f.lastDenial() != DenyForbidden {
		t.Errorf("denial = %q, want %q", f.lastDenial(), DenyForbidden)
	}

	if _, err := f.gate.Authorize(ctx, token, RequirePermission(PermUserManage)); !errors.Is(err, ErrForbidden) {
		t.Errorf("Authorize(user:manage) error = %v, want ErrForbidden", err)
	}
}

func TestGate_AuthorizeAdmin(t *testing.T) {
	f := newGateFixture(t)
	authn := NewAuthenticator(f.users, AuthenticatorConfig{AdminSecret: "correct-admin-secret"})
	admin, err := authn.LoginAdmin(context.Background(), "correct-admin-secret")
	if err != nil {
		t.Fatalf("LoginAdmin() error = %v", err)
	}
	token := f.login(t, admin)

	p, err := f.gate.Authorize(context.Background(), token, RequireAdmin)
	if err != nil {
		t.Fatalf("Authorize(RequireAdmin) error = %v", err)
	}
	if p.Role != RoleAdmin {
		t.Errorf("Role = %q, want admin", p.Role)
	}
}

func TestGate_Unauthenticated(t *testing.T) {
	f := newGateFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		token  string
		reason string
	}{
		{"no token", "", DenyNoSession},
		{"unknown token", "feedface", DenyInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := f.gate.Authorize(ctx, tt.token, RequireSession)
			if !errors.Is(err, ErrSessionInvalid) {
				t.Errorf("Authorize() error = %v, want ErrSessionInvalid", err)
			}
			if p != nil {
				t.Error("denied requests must not yield a principal")
			}
			if f.lastDenial() != tt.reason {
				t.Errorf("denial = %q, want %q", f.lastDenial(), tt.reason)
			}
		})
	}
}

func TestGate_ExpiredSession(t *testing.T) {
	f := newGateFixture(t)
	alice := seedTestUser(t, f.db, "alice", RoleReceptionist)
	token := f.login(t, alice)

	f.clock.Advance(DefaultSessionTTL + time.Second)

	if _, err := f.gate.Authorize(context.Background(), token, RequireSession); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("Authorize() error = %v, want ErrSessionInvalid", err)
	}
}

func TestGate_DeactivatedUser(t *testing.T) {
	f := newGateFixture(t)
	alice := seedTestUser(t, f.db, "alice", RoleReceptionist)
	token := f.login(t, alice)
	ctx := context.Background()

	if _, err := f.users.SetActive(ctx, alice.ID, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	if _, err := f.gate.Authorize(ctx, token, RequireSession); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("Authorize() error = %v, want ErrSessionInvalid", err)
	}
	if f.lastDenial() != DenyInactive {
		t.Errorf("denial = %q, want %q", f.lastDenial(), DenyInactive)
	}

	// Reactivation restores the existing session.
	if _, err := f.users.SetActive(ctx, alice.ID, true); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if _, err := f.gate.Authorize(ctx, token, RequireSession); err != nil {
		t.Errorf("Authorize() after reactivation error = %v", err)
	}
}

func TestGate_OrphanedSession(t *testing.T) {
	f := newGateFixture(t)
	db := f.db
	alice := seedTestUser(t, db, "alice", RoleReceptionist)
	token := f.login(t, alice)

	// Bypass the cascade to simulate a row left behind by an older schema.
	if _, err := db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		t.Fatalf("disabling foreign keys: %v", err)
	}
	if _, err := db.Exec("DELETE FROM users WHERE id = ?", alice.ID); err != nil {
		t.Fatalf("deleting user: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enabling foreign keys: %v", err)
	}

	if _, err := f.gate.Authorize(context.Background(), token, RequireSession); !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("Authorize() error = %v, want ErrSessionInvalid", err)
	}
	if f.lastDenial() != DenyNoUser {
		t.Errorf("denial = %q, want %q", f.lastDenial(), DenyNoUser)
	}
}

func TestGate_StoreFailure(t *testing.T) {
	gate := NewGate(NewSessionManager(failingSessionRepo{}, SessionManagerConfig{}), GateConfig{})

	_, err := gate.Authorize(context.Background(), "some-token", RequireSession)
	if !errors.Is(err, errStoreDown) {
		t.Errorf("Authorize() error = %v, want wrapped store failure", err)
	}
	if errors.Is(err, ErrSessionInvalid) || errors.Is(err, ErrForbidden) {
		t.Error("store failures must not look like authentication failures")
	}
}
