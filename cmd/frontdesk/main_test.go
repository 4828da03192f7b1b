package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/frontdesk-core/internal/auth"
	"github.com/nerrad567/frontdesk-core/internal/infrastructure/database"
	"github.com/nerrad567/frontdesk-core/internal/records"
)

// writeConfig writes a minimal development config using dbPath and points
// FRONTDESK_CONFIG at it.
func writeConfig(t *testing.T, dbPath, extra string) {
	t.Helper()

	content := `
environment: development
database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5
api:
  host: "127.0.0.1"
  port: 18080
logging:
  level: error
  format: text
  output: stderr
` + extra
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	t.Setenv("FRONTDESK_CONFIG", path)
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("FRONTDESK_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("FRONTDESK_CONFIG", "/etc/frontdesk.yaml")
	if got := getConfigPath(); got != "/etc/frontdesk.yaml" {
		t.Errorf("getConfigPath() = %q, want /etc/frontdesk.yaml", got)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("FRONTDESK_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_ProductionWithoutAdminSecret(t *testing.T) {
	writeConfig(t, filepath.Join(t.TempDir(), "fd.db"), "")
	t.Setenv("FRONTDESK_ENVIRONMENT", "production")

	err := run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "admin_password") {
		t.Fatalf("run() error = %v, want admin_password validation failure", err)
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	writeConfig(t, filepath.Join(t.TempDir(), "fd.db"), "auth:\n  janitor_schedule: \"@every 1h\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error = %v, want clean shutdown", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancellation")
	}
}

func TestSeedCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fd.db")
	writeConfig(t, dbPath, "")
	t.Setenv("FRONTDESK_SEED_PASSWORD", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"seed", "--sample-data"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out.String(), `Created user "receptionist" with password: `) {
		t.Errorf("seed output = %q, want the generated password", out.String())
	}

	// Second run leaves everything in place and prints nothing.
	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"seed", "--sample-data"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("second seed output = %q, want none", out.String())
	}

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("reopening db: %v", err)
	}
	defer db.Close() //nolint:errcheck // test cleanup

	if _, err := auth.NewUserRepository(db.DB).GetByUsername(ctx, auth.SeedUsername); err != nil {
		t.Errorf("receptionist not created: %v", err)
	}
	customers, err := records.NewSQLiteRepository(db.DB).ListCustomers(ctx)
	if err != nil {
		t.Fatalf("listing customers: %v", err)
	}
	if len(customers) != 3 {
		t.Errorf("customers = %d, want 3 sample customers", len(customers))
	}
}
