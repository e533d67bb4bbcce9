package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"transcoop/internal/core"
	"transcoop/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

const RoleAdmin = "admin"

var errBadCredentials = core.Validationf("invalid username or password")

// AuthService checks operator credentials against bcrypt hashes.
type AuthService struct {
	store *storage.Store
}

func NewAuthService(store *storage.Store) *AuthService {
	return &AuthService{store: store}
}

// EnsureAdmin creates the administrator account when no user exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, password string) error {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return core.Validationf("admin user and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	created := false
	err = s.store.WithTx(ctx, func(q *storage.Queries) error {
		n, err := q.CountUsers(ctx)
		if err != nil || n > 0 {
			return err
		}
		_, err = q.CreateUser(ctx, core.User{Name: name, PasswordHash: string(hash), Role: RoleAdmin})
		created = err == nil
		return err
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		slog.InfoContext(ctx, "Administrator account created", "user", name)
	}
	return nil
}

// Login returns the user when name and password match. Unknown users and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, name, password string) (core.User, error) {
	u, err := s.store.GetUserByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, errBadCredentials
		}
		return core.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "Login rejected", "user", u.Name)
		return core.User{}, errBadCredentials
	}
	u.PasswordHash = ""
	return u, nil
}
