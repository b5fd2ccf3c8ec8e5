package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"labdesk/db"
	"labdesk/models"

	"github.com/google/uuid"
)

var ErrUserExists = errors.New("a user with this email already exists")

// CreateAdmin adds an admin account with a generated password and returns
// the password.
func CreateAdmin(ctx context.Context, repo *db.Repo, email, name string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errors.New("email is required")
	}
	if name == "" {
		name = "Administrator"
	}
	pw, err := GeneratePassword()
	if err != nil {
		return "", err
	}
	hash, err := HashPassword(pw)
	if err != nil {
		return "", err
	}
	err = repo.CreateUser(ctx, &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       models.UserActive,
	})
	if db.IsDuplicateKey(err) {
		return "", ErrUserExists
	}
	if err != nil {
		return "", fmt.Errorf("create admin: %w", err)
	}
	return pw, nil
}

// BootstrapFirstAdmin creates the first admin for email when the database has
// none. The generated password is written to the log once.
func BootstrapFirstAdmin(ctx context.Context, repo *db.Repo, log *slog.Logger, email string) error {
	if email == "" {
		return nil
	}
	n, err := repo.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	pw, err := CreateAdmin(ctx, repo, email, "")
	if err != nil {
		return err
	}
	log.Warn("no admin found, created one",
		"email", email, "password", pw)
	return nil
}
