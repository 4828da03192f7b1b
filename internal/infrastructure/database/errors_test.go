package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestConstraintErrors(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		CREATE TABLE parents (id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE);
		CREATE TABLE children (id TEXT PRIMARY KEY, parent_id TEXT NOT NULL REFERENCES parents(id));
		INSERT INTO parents (id, name) VALUES ('p1', 'first');
	`)
	if err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	_, uniqueErr := db.ExecContext(ctx, "INSERT INTO parents (id, name) VALUES ('p2', 'first')")
	if !IsUniqueViolation(uniqueErr) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", uniqueErr)
	}
	if !IsUniqueViolation(fmt.Errorf("wrapped: %w", uniqueErr)) {
		t.Error("IsUniqueViolation should see through wrapping")
	}

	_, pkErr := db.ExecContext(ctx, "INSERT INTO parents (id, name) VALUES ('p1', 'second')")
	if !IsUniqueViolation(pkErr) {
		t.Errorf("IsUniqueViolation(%v) = false for primary key conflict", pkErr)
	}

	_, fkErr := db.ExecContext(ctx, "INSERT INTO children (id, parent_id) VALUES ('c1', 'missing')")
	if !IsForeignKeyViolation(fkErr) {
		t.Errorf("IsForeignKeyViolation(%v) = false, want true", fkErr)
	}
	if IsUniqueViolation(fkErr) {
		t.Error("foreign key failure is not a unique violation")
	}

	if IsUniqueViolation(nil) || IsUniqueViolation(errors.New("UNIQUE constraint failed")) {
		t.Error("only driver errors count as unique violations")
	}
}
