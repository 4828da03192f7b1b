package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/frontdesk-core/internal/infrastructure/database"
)

// Repository defines the persistence operations for customer records.
type Repository interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	UpdateCustomer(ctx context.Context, id string, patch CustomerPatch) (*Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	CountCustomers(ctx context.Context) (int, error)

	CreateField(ctx context.Context, f *FieldDefinition) error
	GetField(ctx context.Context, id string) (*FieldDefinition, error)
	ListFields(ctx context.Context) ([]FieldDefinition, error)
	UpdateField(ctx context.Context, f *FieldDefinition) error
	DeleteField(ctx context.Context, id string) error

	CreateNote(ctx context.Context, n *Note) error
	ListNotes(ctx context.Context, customerID string) ([]Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a new SQLite-backed record repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Second)
}

const customerColumns = `id, name, phone, email, custom_fields, created_at, updated_at`

// CreateCustomer validates and inserts a customer. ID and timestamps are assigned.
func (r *SQLiteRepository) CreateCustomer(ctx context.Context, c *Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	if err := ValidateCustomer(c); err != nil {
		return err
	}
	if c.Email != nil && *c.Email == "" {
		c.Email = nil
	}
	if c.CustomFields == nil {
		c.CustomFields = CustomFields{}
	}
	fields, err := json.Marshal(c.CustomFields)
	if err != nil {
		return fmt.Errorf("%w: customFields: %v", ErrInvalidInput, err)
	}

	c.ID = "cus-" + uuid.NewString()[:8]
	c.CreatedAt = r.timestamp()
	c.UpdatedAt = c.CreatedAt

	const query = `INSERT INTO customers (` + customerColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Phone, nullStr(c.Email), string(fields),
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting customer %s: %w", c.ID, err)
	}
	return nil
}

// GetCustomer returns a single customer by ID.
func (r *SQLiteRepository) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCustomers returns all customers, newest first.
func (r *SQLiteRepository) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying customers: %w", err)
	}
	defer rows.Close()

	customers := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating customer rows: %w", err)
	}
	return customers, nil
}

// UpdateCustomer applies a partial update and returns the stored result.
// An empty patch still bumps updated_at.
func (r *SQLiteRepository) UpdateCustomer(ctx context.Context, id string, patch CustomerPatch) (*Customer, error) {
	if err := ValidateCustomerPatch(patch); err != nil {
		return nil, err
	}

	var name, phone, fields sql.NullString
	if patch.Name != nil {
		name = sql.NullString{String: strings.TrimSpace(*patch.Name), Valid: true}
	}
	if patch.Phone != nil {
		phone = sql.NullString{String: strings.TrimSpace(*patch.Phone), Valid: true}
	}
	if patch.CustomFields != nil {
		b, err := json.Marshal(patch.CustomFields)
		if err != nil {
			return nil, fmt.Errorf("%w: customFields: %v", ErrInvalidInput, err)
		}
		fields = sql.NullString{String: string(b), Valid: true}
	}
	setEmail := patch.Email != nil
	var email sql.NullString
	if setEmail && *patch.Email != "" {
		email = sql.NullString{String: *patch.Email, Valid: true}
	}

	const query = `UPDATE customers SET
			name          = COALESCE(?, name),
			phone         = COALESCE(?, phone),
			email         = CASE WHEN ? THEN ? ELSE email END,
			custom_fields = COALESCE(?, custom_fields),
			updated_at    = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		name, phone, setEmail, email, fields, formatTime(r.timestamp()), id)
	if err != nil {
		return nil, fmt.Errorf("updating customer %s: %w", id, err)
	}
	if err := expectOneRow(res, ErrCustomerNotFound); err != nil {
		return nil, err
	}
	return r.GetCustomer(ctx, id)
}

// DeleteCustomer removes a customer and, by cascade, its notes.
func (r *SQLiteRepository) DeleteCustomer(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting customer %s: %w", id, err)
	}
	return expectOneRow(res, ErrCustomerNotFound)
}

// CountCustomers returns the number of stored customers.
func (r *SQLiteRepository) CountCustomers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting customers: %w", err)
	}
	return n, nil
}

const fieldColumns = `id, name, label, type, required, options, sort_order, created_at, updated_at`

// CreateField validates and inserts a field definition.
func (r *SQLiteRepository) CreateField(ctx context.Context, f *FieldDefinition) error {
	if err := ValidateField(f); err != nil {
		return err
	}
	options, err := encodeOptions(f.Options)
	if err != nil {
		return err
	}

	f.ID = "fld-" + uuid.NewString()[:8]
	f.CreatedAt = r.timestamp()
	f.UpdatedAt = f.CreatedAt

	const query = `INSERT INTO field_definitions (` + fieldColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		f.ID, f.Name, f.Label, string(f.Type), boolToInt(f.Required), options, f.Order,
		formatTime(f.CreatedAt), formatTime(f.UpdatedAt))
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrFieldNameExists, f.Name)
	}
	if err != nil {
		return fmt.Errorf("inserting field %s: %w", f.Name, err)
	}
	return nil
}

// GetField returns a single field definition by ID.
func (r *SQLiteRepository) GetField(ctx context.Context, id string) (*FieldDefinition, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fieldColumns+` FROM field_definitions WHERE id = ?`, id)
	f, err := scanField(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFieldNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListFields returns all field definitions ordered for display.
func (r *SQLiteRepository) ListFields(ctx context.Context) ([]FieldDefinition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fieldColumns+` FROM field_definitions ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("querying fields: %w", err)
	}
	defer rows.Close()

	fields := []FieldDefinition{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating field rows: %w", err)
	}
	return fields, nil
}

// UpdateField replaces every attribute of an existing field definition.
// CreatedAt is reloaded from the store.
func (r *SQLiteRepository) UpdateField(ctx context.Context, f *FieldDefinition) error {
	if err := ValidateField(f); err != nil {
		return err
	}
	options, err := encodeOptions(f.Options)
	if err != nil {
		return err
	}
	f.UpdatedAt = r.timestamp()

	const query = `UPDATE field_definitions
		SET name = ?, label = ?, type = ?, required = ?, options = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		f.Name, f.Label, string(f.Type), boolToInt(f.Required), options, f.Order,
		formatTime(f.UpdatedAt), f.ID)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrFieldNameExists, f.Name)
	}
	if err != nil {
		return fmt.Errorf("updating field %s: %w", f.ID, err)
	}
	if err := expectOneRow(res, ErrFieldNotFound); err != nil {
		return err
	}

	stored, err := r.GetField(ctx, f.ID)
	if err != nil {
		return err
	}
	*f = *stored
	return nil
}

// DeleteField removes a field definition. Values already stored under its
// name in customers' customFields are left in place.
func (r *SQLiteRepository) DeleteField(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM field_definitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting field %s: %w", id, err)
	}
	return expectOneRow(res, ErrFieldNotFound)
}

// CreateNote validates and inserts a note. A missing customer yields ErrCustomerNotFound.
func (r *SQLiteRepository) CreateNote(ctx context.Context, n *Note) error {
	if err := ValidateNote(n); err != nil {
		return err
	}
	n.ID = "note-" + uuid.NewString()[:8]
	n.CreatedAt = r.timestamp()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (id, customer_id, content, created_at) VALUES (?, ?, ?, ?)`,
		n.ID, n.CustomerID, n.Content, formatTime(n.CreatedAt))
	if database.IsForeignKeyViolation(err) {
		return ErrCustomerNotFound
	}
	if err != nil {
		return fmt.Errorf("inserting note: %w", err)
	}
	return nil
}

// ListNotes returns a customer's notes, newest first. An unknown customer
// yields an empty list.
func (r *SQLiteRepository) ListNotes(ctx context.Context, customerID string) ([]Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, customer_id, content, created_at FROM notes
		 WHERE customer_id = ? ORDER BY created_at DESC, rowid DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		var n Note
		var createdAt string
		if err := rows.Scan(&n.ID, &n.CustomerID, &n.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning note row: %w", err)
		}
		n.CreatedAt = parseTime(createdAt)
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating note rows: %w", err)
	}
	return notes, nil
}

// DeleteNote removes a single note.
func (r *SQLiteRepository) DeleteNote(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting note %s: %w", id, err)
	}
	return expectOneRow(res, ErrNoteNotFound)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row scanner) (*Customer, error) {
	var c Customer
	var email sql.NullString
	var fields, createdAt, updatedAt string

	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &email, &fields, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning customer: %w", err)
	}
	if email.Valid {
		c.Email = &email.String
	}
	c.CustomFields = CustomFields{}
	if fields != "" {
		if err := json.Unmarshal([]byte(fields), &c.CustomFields); err != nil {
			return nil, fmt.Errorf("decoding customFields for %s: %w", c.ID, err)
		}
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

func scanField(row scanner) (*FieldDefinition, error) {
	var f FieldDefinition
	var fieldType, createdAt, updatedAt string
	var required int
	var options sql.NullString

	if err := row.Scan(&f.ID, &f.Name, &f.Label, &fieldType, &required, &options,
		&f.Order, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning field: %w", err)
	}
	f.Type = FieldType(fieldType)
	f.Required = required != 0
	if options.Valid {
		if err := json.Unmarshal([]byte(options.String), &f.Options); err != nil {
			return nil, fmt.Errorf("decoding options for field %s: %w", f.ID, err)
		}
	}
	f.CreatedAt = parseTime(createdAt)
	f.UpdatedAt = parseTime(updatedAt)
	return &f, nil
}

// encodeOptions stores an empty option list as NULL.
func encodeOptions(options []string) (sql.NullString, error) {
	if len(options) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(options)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("%w: options: %v", ErrInvalidInput, err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// nullStr converts a *string to a sql.NullString for nullable columns.
func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
