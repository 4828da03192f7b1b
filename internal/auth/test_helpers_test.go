package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/frontdesk-core/internal/infrastructure/database"
	_ "github.com/nerrad567/frontdesk-core/migrations"
)

// testDB creates a temporary SQLite database with the real schema applied.
// The database is closed when the test completes.
func testDB(t testing.TB) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "auth-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}

	return db.DB
}

// testDBHandles opens n independent connection pools on one migrated
// database file, as separate processes sharing the store would.
func testDBHandles(t testing.TB, n int) []*sql.DB {
	t.Helper()

	ctx := context.Background()
	cfg := database.Config{
		Path:        filepath.Join(t.TempDir(), "auth-shared.db"),
		WALMode:     true,
		BusyTimeout: 5,
	}

	handles := make([]*sql.DB, 0, n)
	for i := range n {
		db, err := database.Open(ctx, cfg)
		if err != nil {
			t.Fatalf("opening handle %d: %v", i, err)
		}
		t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

		if i == 0 {
			if err := db.Migrate(ctx); err != nil {
				t.Fatalf("applying migrations: %v", err)
			}
		}
		handles = append(handles, db.DB)
	}
	return handles
}

// seedTestUser inserts an active user with password "test-password".
func seedTestUser(t testing.TB, db *sql.DB, username string, role Role) *User {
	t.Helper()

	hash, err := HashPassword("test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	user := &User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := NewUserRepository(db).Create(context.Background(), user); err != nil {
		t.Fatalf("creating test user %s: %v", username, err)
	}
	return user
}

// countSessions returns the number of session rows regardless of expiry.
func countSessions(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n); err != nil {
		t.Fatalf("counting sessions: %v", err)
	}
	return n
}

// fakeClock is a manually advanced clock for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
