package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestUserRepository_CreateAndGetByID(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	hash, _ := HashPassword("password123")
	user := &User{
		Username:     "alice",
		PasswordHash: hash,
		Role:         RoleReceptionist,
		IsActive:     true,
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == "" {
		t.Fatal("Create() should generate an ID")
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("Username = %q, want %q", got.Username, "alice")
	}
	if got.Role != RoleReceptionist {
		t.Errorf("Role = %q, want %q", got.Role, RoleReceptionist)
	}
	if !got.IsActive {
		t.Error("IsActive should be true")
	}
	if got.PasswordHash != hash {
		t.Error("PasswordHash should round-trip unchanged")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be populated")
	}
}

func TestUserRepository_GetByUsername_CaseSensitive(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	seedTestUser(t, db, "Alice", RoleReceptionist)

	if _, err := repo.GetByUsername(ctx, "Alice"); err != nil {
		t.Fatalf("GetByUsername(Alice) error = %v", err)
	}
	if _, err := repo.GetByUsername(ctx, "alice"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByUsername(alice) error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	seedTestUser(t, db, "dupe", RoleReceptionist)

	err := repo.Create(context.Background(), &User{
		Username:     "dupe",
		PasswordHash: "x",
		Role:         RoleReceptionist,
		IsActive:     true,
	})
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("Create() duplicate error = %v, want ErrUsernameExists", err)
	}
}

func TestUserRepository_ListByRole(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	empty, err := repo.ListByRole(ctx, RoleReceptionist)
	if err != nil {
		t.Fatalf("ListByRole() error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("ListByRole() on empty table = %v, want empty non-nil slice", empty)
	}

	seedTestUser(t, db, "alice", RoleReceptionist)
	seedTestUser(t, db, "bob", RoleReceptionist)
	if _, err := repo.FindOrCreateAdmin(ctx, &User{Username: AdminUsername, PasswordHash: UnusablePasswordHash}); err != nil {
		t.Fatalf("FindOrCreateAdmin() error = %v", err)
	}

	receptionists, err := repo.ListByRole(ctx, RoleReceptionist)
	if err != nil {
		t.Fatalf("ListByRole() error = %v", err)
	}
	if len(receptionists) != 2 {
		t.Fatalf("ListByRole(receptionist) returned %d users, want 2", len(receptionists))
	}
	for _, u := range receptionists {
		if u.Role != RoleReceptionist {
			t.Errorf("unexpected role %q in receptionist list", u.Role)
		}
	}
}

func TestUserRepository_SetActive(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := seedTestUser(t, db, "alice", RoleReceptionist)

	updated, err := repo.SetActive(ctx, user.ID, false)
	if err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if updated.IsActive {
		t.Error("SetActive(false) should return an inactive user")
	}

	if _, err := repo.SetActive(ctx, "usr-missing", true); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("SetActive() on missing user error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_Delete(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := seedTestUser(t, db, "alice", RoleReceptionist)

	if err := repo.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrUserNotFound", err)
	}
	if err := repo.Delete(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second Delete() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_Count(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	seedTestUser(t, db, "alice", RoleReceptionist)
	seedTestUser(t, db, "bob", RoleReceptionist)

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestUserRepository_FindOrCreateAdmin_Idempotent(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first, err := repo.FindOrCreateAdmin(ctx, &User{Username: AdminUsername, PasswordHash: UnusablePasswordHash})
	if err != nil {
		t.Fatalf("FindOrCreateAdmin() error = %v", err)
	}
	second, err := repo.FindOrCreateAdmin(ctx, &User{Username: AdminUsername, PasswordHash: UnusablePasswordHash})
	if err != nil {
		t.Fatalf("second FindOrCreateAdmin() error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("admin IDs differ: %s vs %s", first.ID, second.ID)
	}
	if first.Role != RoleAdmin || !first.IsActive {
		t.Errorf("admin = %+v, want active admin", first)
	}
}

func TestUserRepository_FindOrCreateAdmin_UsernameTaken(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)

	seedTestUser(t, db, AdminUsername, RoleReceptionist)

	if _, err := repo.FindOrCreateAdmin(context.Background(), &User{Username: AdminUsername, PasswordHash: UnusablePasswordHash}); err == nil {
		t.Error("FindOrCreateAdmin() should fail when a receptionist owns the admin username")
	}
}

func TestUserRepository_SecondAdminRejectedByIndex(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	if _, err := repo.FindOrCreateAdmin(ctx, &User{Username: AdminUsername, PasswordHash: UnusablePasswordHash}); err != nil {
		t.Fatalf("FindOrCreateAdmin() error = %v", err)
	}

	err := repo.Create(ctx, &User{Username: "admin2", PasswordHash: "x", Role: RoleAdmin, IsActive: true})
	if err == nil {
		t.Fatal("inserting a second admin should violate the single-admin index")
	}
}

func TestResilience_ConcurrentAdminBootstrap(t *testing.T) {
	db := testDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	ids := make(chan string, callers)
	errs := make(chan error, callers)

	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admin, err := repo.FindOrCreateAdmin(ctx, &User{Username: AdminUsername, PasswordHash: UnusablePasswordHash})
			if err != nil {
				errs <- err
				return
			}
			ids <- admin.ID
		}()
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		t.Errorf("FindOrCreateAdmin() error = %v", err)
	}

	seen := make(map[string]bool)
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Errorf("callers observed %d distinct admin ids, want 1", len(seen))
	}

	var admins int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'admin'").Scan(&admins); err != nil {
		t.Fatalf("counting admins: %v", err)
	}
	if admins != 1 {
		t.Errorf("admin rows = %d, want exactly 1", admins)
	}
}
