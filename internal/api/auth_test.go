package api

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/nerrad567/frontdesk-core/internal/auth"
	"github.com/nerrad567/frontdesk-core/internal/infrastructure/config"
)

func TestLogin_SetsSessionCookie(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createReceptionist(t, "alice")

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"`+testPassword+`"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}

	resp := decodeBody[loginResponse](t, w)
	if resp.Message != "Login successful" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.User.UserID != alice.ID || resp.User.Username != "alice" || resp.User.Role != auth.RoleReceptionist {
		t.Errorf("user = %+v", resp.User)
	}

	c := sessionCookie(t, w)
	if len(c.Value) != 64 {
		t.Errorf("token length = %d, want 64", len(c.Value))
	}
	if !c.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
	if c.Path != "/" {
		t.Errorf("Path = %q, want /", c.Path)
	}
	if c.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600 (session TTL)", c.MaxAge)
	}
	if c.Secure {
		t.Error("cookie should not be Secure in development")
	}
}

func TestLogin_SecureCookieInProduction(t *testing.T) {
	tests := []struct {
		name   string
		https  bool
		secure bool
	}{
		{"production over https", true, true},
		{"production over http", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(c *config.Config) {
				c.Environment = config.EnvProduction
				c.API.HTTPSEnabled = tt.https
			})
			env.createReceptionist(t, "alice")

			w := env.do(t, http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"`+testPassword+`"}`, "")
			if got := sessionCookie(t, w).Secure; got != tt.secure {
				t.Errorf("Secure = %v, want %v", got, tt.secure)
			}
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.createReceptionist(t, "alice")

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"wrong password", `{"username":"alice","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"username":"mallory","password":"nope"}`, http.StatusUnauthorized},
		{"admin via password path", `{"username":"admin","password":"` + testAdminSecret + `"}`, http.StatusUnauthorized},
		{"missing password", `{"username":"alice"}`, http.StatusBadRequest},
		{"missing username", `{"password":"x"}`, http.StatusBadRequest},
		{"invalid json", `{"username":`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/auth/login", tt.body, "")
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d; body: %s", w.Code, tt.status, w.Body.String())
			}
			for _, c := range w.Result().Cookies() {
				if c.Name == SessionCookieName {
					t.Error("failed login must not set a session cookie")
				}
			}
		})
	}
}

func TestLogin_DeactivatedUser(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createReceptionist(t, "alice")
	token := env.login(t, "alice")
	admin := env.loginAdmin(t)

	w := env.do(t, http.MethodPatch, "/api/v1/auth/users", `{"id":"`+alice.ID+`","isActive":false}`, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("deactivate status = %d, body: %s", w.Code, w.Body.String())
	}

	if w := env.do(t, http.MethodGet, "/api/v1/auth/me", "", token); w.Code != http.StatusUnauthorized {
		t.Errorf("existing session after deactivation: status = %d, want 401", w.Code)
	}
	w = env.do(t, http.MethodPost, "/api/v1/auth/login", `{"username":"alice","password":"`+testPassword+`"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("login after deactivation: status = %d, want 401", w.Code)
	}
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"correct secret", `{"adminPassword":"` + testAdminSecret + `"}`, http.StatusOK},
		{"wrong secret", `{"adminPassword":"guess"}`, http.StatusUnauthorized},
		{"missing secret", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/auth/admin-login", tt.body, "")
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d; body: %s", w.Code, tt.status, w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			resp := decodeBody[loginResponse](t, w)
			if resp.Message != "Admin login successful" || resp.User.Role != auth.RoleAdmin {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestAdminLogin_Disabled(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Auth.AdminPassword = "" })

	w := env.do(t, http.MethodPost, "/api/v1/auth/admin-login", `{"adminPassword":"anything"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAdminLogin_SameAccountEachTime(t *testing.T) {
	env := newTestEnv(t)

	first := decodeBody[loginResponse](t,
		env.do(t, http.MethodPost, "/api/v1/auth/admin-login", `{"adminPassword":"`+testAdminSecret+`"}`, ""))
	second := decodeBody[loginResponse](t,
		env.do(t, http.MethodPost, "/api/v1/auth/admin-login", `{"adminPassword":"`+testAdminSecret+`"}`, ""))
	if first.User.UserID == "" || first.User.UserID != second.User.UserID {
		t.Errorf("admin ids = %q, %q; want one stable account", first.User.UserID, second.User.UserID)
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createReceptionist(t, "alice")
	token := env.login(t, "alice")

	w := env.do(t, http.MethodGet, "/api/v1/auth/me", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	me := decodeBody[map[string]any](t, w)
	if me["id"] != alice.ID || me["username"] != "alice" || me["role"] != "receptionist" {
		t.Errorf("me = %v", me)
	}
	if len(me) != 4 {
		t.Errorf("me has %d keys, want exactly id, username, role, permissions", len(me))
	}
	perms, _ := me["permissions"].([]any)
	want := []any{"records:read", "records:write", "fields:manage"}
	if !reflect.DeepEqual(perms, want) {
		t.Errorf("permissions = %v, want %v", perms, want)
	}
}

func TestMe_BearerToken(t *testing.T) {
	env := newTestEnv(t)
	env.createReceptionist(t, "alice")
	token := env.login(t, "alice")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestMe_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		token string
	}{
		{"no cookie", ""},
		{"unknown token", "0000000000000000000000000000000000000000000000000000000000000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/v1/auth/me", "", tt.token)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
			if resp := decodeBody[Error](t, w); resp.Code != ErrCodeUnauthorized {
				t.Errorf("code = %q, want %q", resp.Code, ErrCodeUnauthorized)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.createReceptionist(t, "alice")
	token := env.login(t, "alice")

	w := env.do(t, http.MethodPost, "/api/v1/auth/logout", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	if msg := decodeBody[map[string]string](t, w)["message"]; msg != "Logout successful" {
		t.Errorf("message = %q", msg)
	}
	if c := sessionCookie(t, w); c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("cookie not cleared: %+v", c)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/auth/me", "", token); w.Code != http.StatusUnauthorized {
		t.Errorf("token after logout: status = %d, want 401", w.Code)
	}

	// Logging out again, or with no session at all, still succeeds.
	for _, tok := range []string{token, ""} {
		if w := env.do(t, http.MethodPost, "/api/v1/auth/logout", "", tok); w.Code != http.StatusOK {
			t.Errorf("repeat logout (token %q): status = %d, want 200", tok, w.Code)
		}
	}
}

func TestResilience_AliceBobSessions(t *testing.T) {
	env := newTestEnv(t)
	env.createReceptionist(t, "alice")
	env.createReceptionist(t, "bob")

	aliceToken := env.login(t, "alice")
	bobToken := env.login(t, "bob")

	env.do(t, http.MethodPost, "/api/v1/auth/logout", "", aliceToken)

	if w := env.do(t, http.MethodGet, "/api/v1/auth/me", "", aliceToken); w.Code != http.StatusUnauthorized {
		t.Errorf("alice after logout: status = %d, want 401", w.Code)
	}
	w := env.do(t, http.MethodGet, "/api/v1/auth/me", "", bobToken)
	if w.Code != http.StatusOK {
		t.Fatalf("bob after alice's logout: status = %d, want 200", w.Code)
	}
	if me := decodeBody[map[string]any](t, w); me["username"] != "bob" {
		t.Errorf("bob's session resolved to %v", me["username"])
	}
}
