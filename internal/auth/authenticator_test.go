package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type attemptLog struct {
	entries []string
}

func (l *attemptLog) record(kind, outcome string) {
	l.entries = append(l.entries, kind+":"+outcome)
}

func (l *attemptLog) last() string {
	if len(l.entries) == 0 {
		return ""
	}
	return l.entries[len(l.entries)-1]
}

func TestAuthenticateUser(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	attempts := &attemptLog{}
	authn := NewAuthenticator(repo, AuthenticatorConfig{OnAttempt: attempts.record})
	ctx := context.Background()

	seedTestUser(t, db, "alice", RoleReceptionist)
	inactive := seedTestUser(t, db, "carol", RoleReceptionist)
	if _, err := repo.SetActive(ctx, inactive.ID, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	user, err := authn.AuthenticateUser(ctx, "alice", "test-password")
	if err != nil {
		t.Fatalf("AuthenticateUser() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want alice", user.Username)
	}
	if attempts.last() != "user:success" {
		t.Errorf("attempt = %q, want user:success", attempts.last())
	}

	failures := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "wrong"},
		{"unknown user", "mallory", "test-password"},
		{"inactive user with right password", "carol", "test-password"},
		{"case mismatch", "Alice", "test-password"},
		{"empty password", "alice", ""},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			user, err := authn.AuthenticateUser(ctx, tt.username, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("AuthenticateUser() error = %v, want ErrInvalidCredentials", err)
			}
			if user != nil {
				t.Error("failed authentication must not return a user")
			}
			if attempts.last() != "user:failure" {
				t.Errorf("attempt = %q, want user:failure", attempts.last())
			}
		})
	}
}

func TestAuthenticateUser_LegacyHash(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, &User{
		Username:     "legacy",
		PasswordHash: legacyFixture,
		Role:         RoleReceptionist,
		IsActive:     true,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	authn := NewAuthenticator(repo, AuthenticatorConfig{})
	if _, err := authn.AuthenticateUser(ctx, "legacy", "password123"); err != nil {
		t.Fatalf("legacy hash should authenticate: %v", err)
	}

	// A successful login rewrites the stored hash as Argon2id.
	stored, err := repo.GetByUsername(ctx, "legacy")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if IsLegacyHash(stored.PasswordHash) || !strings.HasPrefix(stored.PasswordHash, "$argon2id$") {
		t.Errorf("stored hash = %q, want an Argon2id upgrade", stored.PasswordHash)
	}
	if _, err := authn.AuthenticateUser(ctx, "legacy", "password123"); err != nil {
		t.Errorf("upgraded hash should authenticate: %v", err)
	}
	if _, err := authn.AuthenticateUser(ctx, "legacy", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password after upgrade: error = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthenticateUser_BootstrappedAdminCannotUsePasswordLogin(t *testing.T) {
	db := testDB(t)
	authn := NewAuthenticator(NewUserRepository(db), AuthenticatorConfig{AdminSecret: "correct-admin-secret"})
	ctx := context.Background()

	if _, err := authn.BootstrapAdmin(ctx); err != nil {
		t.Fatalf("BootstrapAdmin() error = %v", err)
	}

	for _, pw := range []string{"", "admin", UnusablePasswordHash, "correct-admin-secret"} {
		if _, err := authn.AuthenticateUser(ctx, AdminUsername, pw); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("AuthenticateUser(admin, %q) error = %v, want ErrInvalidCredentials", pw, err)
		}
	}
}

func TestAuthenticateUser_StoreFailure(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	attempts := &attemptLog{}
	authn := NewAuthenticator(repo, AuthenticatorConfig{OnAttempt: attempts.record})

	db.Close() //nolint:errcheck // simulate a dead store

	_, err := authn.AuthenticateUser(context.Background(), "alice", "pw")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("AuthenticateUser() error = %v, want a store failure", err)
	}
	if attempts.last() != "user:error" {
		t.Errorf("attempt = %q, want user:error", attempts.last())
	}
}

func TestAuthenticateAdmin(t *testing.T) {
	authn := NewAuthenticator(nil, AuthenticatorConfig{AdminSecret: "correct-admin-secret"})

	tests := []struct {
		provided string
		want     bool
	}{
		{"correct-admin-secret", true},
		{"correct-admin-secreT", false},
		{"correct-admin-secret ", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := authn.AuthenticateAdmin(tt.provided); got != tt.want {
			t.Errorf("AuthenticateAdmin(%q) = %v, want %v", tt.provided, got, tt.want)
		}
	}
}

func TestAuthenticateAdmin_DisabledWhenUnset(t *testing.T) {
	authn := NewAuthenticator(nil, AuthenticatorConfig{})

	if authn.AdminEnabled() {
		t.Error("AdminEnabled() should be false without a secret")
	}
	if authn.AuthenticateAdmin("") {
		t.Error("an empty secret must never match when admin login is disabled")
	}
	if authn.AuthenticateAdmin("anything") {
		t.Error("no secret may match when admin login is disabled")
	}
}

func TestLoginAdmin(t *testing.T) {
	db := testDB(t)
	attempts := &attemptLog{}
	authn := NewAuthenticator(NewUserRepository(db), AuthenticatorConfig{
		AdminSecret: "correct-admin-secret",
		OnAttempt:   attempts.record,
	})
	ctx := context.Background()

	if _, err := authn.LoginAdmin(ctx, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("LoginAdmin(wrong) error = %v, want ErrInvalidCredentials", err)
	}
	if attempts.last() != "admin:failure" {
		t.Errorf("attempt = %q, want admin:failure", attempts.last())
	}

	var admins int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'admin'").Scan(&admins); err != nil {
		t.Fatalf("counting admins: %v", err)
	}
	if admins != 0 {
		t.Error("a failed admin login must not bootstrap the admin")
	}

	first, err := authn.LoginAdmin(ctx, "correct-admin-secret")
	if err != nil {
		t.Fatalf("LoginAdmin() error = %v", err)
	}
	if first.Role != RoleAdmin || first.Username != AdminUsername {
		t.Errorf("LoginAdmin() = %+v, want the admin account", first)
	}
	if attempts.last() != "admin:success" {
		t.Errorf("attempt = %q, want admin:success", attempts.last())
	}

	second, err := authn.LoginAdmin(ctx, "correct-admin-secret")
	if err != nil {
		t.Fatalf("second LoginAdmin() error = %v", err)
	}
	if first.ID != second.ID {
		t.Error("repeated admin logins must reuse the same admin account")
	}
}

func TestLoginAdmin_Disabled(t *testing.T) {
	db := testDB(t)
	authn := NewAuthenticator(NewUserRepository(db), AuthenticatorConfig{})

	if _, err := authn.LoginAdmin(context.Background(), ""); !errors.Is(err, ErrAdminDisabled) {
		t.Errorf("LoginAdmin() error = %v, want ErrAdminDisabled", err)
	}
}
