package auth

import (
	"context"
	"fmt"
)

// maxPasswordLength bounds the work a single login or create request can cause.
const maxPasswordLength = 256

// Directory manages receptionist accounts on behalf of the admin.
type Directory struct {
	users  UserRepository
	logger Logger
}

// NewDirectory creates a user directory backed by users.
func NewDirectory(users UserRepository) *Directory {
	return &Directory{
		users:  users,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the directory.
func (d *Directory) SetLogger(logger Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// Create validates input, hashes the password and persists an active user.
//
// Only receptionists are created here; the admin identity exists solely
// through BootstrapAdmin. The admin username is reserved.
func (d *Directory) Create(ctx context.Context, username, password string, role Role) (*User, error) {
	if err := validateNewUser(username, password, role); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := d.users.Create(ctx, user); err != nil {
		return nil, err
	}

	d.logger.Info("user created", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, nil
}

func validateNewUser(username, password string, role Role) error {
	switch {
	case !IsValidUsername(username):
		return fmt.Errorf("%w: username must be 1-64 characters of letters, digits, dots, hyphens or underscores", ErrInvalidInput)
	case username == AdminUsername:
		return fmt.Errorf("%w: username %q is reserved", ErrInvalidInput, AdminUsername)
	case password == "":
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	case len(password) > maxPasswordLength:
		return fmt.Errorf("%w: password must be at most %d characters", ErrInvalidInput, maxPasswordLength)
	case !IsValidUserRole(role):
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	case role == RoleAdmin:
		return fmt.Errorf("%w: the admin account cannot be created directly", ErrInvalidInput)
	}
	return nil
}

// Get returns the user with the given id.
func (d *Directory) Get(ctx context.Context, id string) (*User, error) {
	return d.users.GetByID(ctx, id)
}

// Count returns the number of accounts, the admin included.
func (d *Directory) Count(ctx context.Context) (int, error) {
	return d.users.Count(ctx)
}

// ListByRole returns the users holding role.
func (d *Directory) ListByRole(ctx context.Context, role Role) ([]User, error) {
	if !IsValidUserRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	return d.users.ListByRole(ctx, role)
}

// SetActive enables or disables an account. Sessions of a disabled account
// stay in the store but no longer pass the authorisation gate.
func (d *Directory) SetActive(ctx context.Context, id string, isActive bool) (*User, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := d.ensureManaged(ctx, id); err != nil {
		return nil, err
	}

	user, err := d.users.SetActive(ctx, id, isActive)
	if err != nil {
		return nil, err
	}

	d.logger.Info("user status changed", "user_id", id, "is_active", isActive)
	return user, nil
}

// Delete removes an account. Its sessions are removed with it.
func (d *Directory) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := d.ensureManaged(ctx, id); err != nil {
		return err
	}

	if err := d.users.Delete(ctx, id); err != nil {
		return err
	}

	d.logger.Info("user deleted", "user_id", id)
	return nil
}

// ensureManaged rejects changes to the bootstrapped admin account.
func (d *Directory) ensureManaged(ctx context.Context, id string) error {
	user, err := d.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == RoleAdmin {
		return fmt.Errorf("%w: the admin account cannot be modified", ErrInvalidInput)
	}
	return nil
}
