package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/servicedesk/servicedesk/internal/crypto"
	"github.com/servicedesk/servicedesk/internal/model"
	"github.com/servicedesk/servicedesk/internal/repository"
	"github.com/servicedesk/servicedesk/internal/validation"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailAlreadyExists    = errors.New("Email already exists")
	ErrUsernameAlreadyExists = errors.New("Username already exists")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrWeakPassword          = errors.New("password must be at least 8 characters")
	ErrNameRequired          = errors.New("name is required")
)

// dummyHash is verified against when the identifier matches no account,
// so a miss costs the same KDF work as a wrong password.
var dummyHash, _ = crypto.HashPassword("servicedesk-dummy")

// AuthService implements local credential authentication: registration
// and the identifier+password login strategy.
type AuthService struct {
	users repository.UserRepository
}

func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{users: users}
}

type RegisterInput struct {
	Name     string
	Email    string
	Username string
	Password string
}

// Register creates a client account with a hashed password. Duplicate
// email or username surfaces as a conflict error.
func (s *AuthService) Register(in RegisterInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = validation.NormalizeIdentifier(in.Email)
	in.Username = validation.NormalizeIdentifier(in.Username)

	if in.Name == "" {
		return nil, ErrNameRequired
	}
	err := validation.ValidateEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEmail, err)
	}
	err = validation.ValidatePassword(in.Password)
	if err != nil {
		return nil, ErrWeakPassword
	}

	hashed, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		Name:      in.Name,
		Email:     in.Email,
		Password:  hashed,
		Role:      model.RoleClient,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Username != "" {
		user.Username = &in.Username
	}

	err = s.users.Create(user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailAlreadyExists
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, ErrUsernameAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login validates an identifier (email or username) and password.
// Unknown identifier and wrong password both yield ErrInvalidCredentials
// with no distinguishing detail, to resist account enumeration.
func (s *AuthService) Login(identifier, password string) (*model.User, error) {
	identifier = validation.NormalizeIdentifier(identifier)

	user, err := s.users.ByEmailOrUsername(identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn the same KDF work as a real verification.
			crypto.VerifyPassword(password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !crypto.VerifyPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// UserByID re-fetches the full account for session deserialization, so
// role changes take effect immediately rather than only at login.
func (s *AuthService) UserByID(id int64) (*model.User, error) {
	user, err := s.users.ByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// EnsureAdmin creates (or promotes) the bootstrap admin account. Called
// at startup when ADMIN_EMAIL and ADMIN_PASSWORD are configured.
func (s *AuthService) EnsureAdmin(email, password string) error {
	email = validation.NormalizeIdentifier(email)

	existing, err := s.users.ByEmail(email)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			existing.Role = model.RoleAdmin
			err = s.users.Update(existing)
			if err != nil {
				return fmt.Errorf("failed to promote admin: %w", err)
			}
			slog.Info("promoted bootstrap admin", "email", email)
		}
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("failed to check admin: %w", err)
	}

	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now()
	admin := &model.User{
		Name:      "Administrator",
		Email:     email,
		Password:  hashed,
		Role:      model.RoleAdmin,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.users.Create(admin)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	slog.Info("created bootstrap admin", "email", email)
	return nil
}
