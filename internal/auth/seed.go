package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
)

const (
	// SeedUsername is the receptionist account created by the seed command.
	SeedUsername = "receptionist"

	// seedPasswordBytes is the number of random bytes for a generated seed password.
	seedPasswordBytes = 16
)

// SeedReceptionist creates the initial receptionist account if it does not
// exist yet. An empty password is replaced by a random one.
//
// Returns the password that was set, or an empty string if the account
// already existed and nothing was changed.
func SeedReceptionist(ctx context.Context, users UserRepository, password string, logger *slog.Logger) (string, error) {
	_, err := users.GetByUsername(ctx, SeedUsername)
	if err == nil {
		logger.Info("seed user exists, skipping", "username", SeedUsername)
		return "", nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return "", fmt.Errorf("checking seed user: %w", err)
	}

	generated := password == ""
	if generated {
		passwordBytes := make([]byte, seedPasswordBytes)
		if _, err := rand.Read(passwordBytes); err != nil { //nolint:govet // shadow: err re-declared in nested scope
			return "", fmt.Errorf("generating seed password: %w", err)
		}
		password = hex.EncodeToString(passwordBytes)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	user := &User{
		Username:     SeedUsername,
		PasswordHash: hash,
		Role:         RoleReceptionist,
		IsActive:     true,
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUsernameExists) {
			// Lost a race with a concurrent seed; the other one wins.
			return "", nil
		}
		return "", fmt.Errorf("creating seed user: %w", err)
	}

	logger.Warn("seed user created",
		"username", SeedUsername,
		"user_id", user.ID,
		"generated_password", generated,
		"action_required", "change or remove this account before going live",
	)

	return password, nil
}
