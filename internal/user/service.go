package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookreviews/internal/apperror"
	"bookreviews/internal/platform/crypto"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register creates a USER account. The password must pass the strength
// rules and is stored only as a bcrypt hash.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if err := crypto.ValidatePasswordStrength(in.Password); err != nil {
		return User{}, apperror.Invalid("Invalid input", apperror.FieldError{Field: "password", Message: err.Error()})
	}

	now := s.now().UTC()
	u := User{
		ID:        uuid.NewString(),
		Email:     in.Email,
		Username:  in.Username,
		Role:      RoleUser,
		IsPublic:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	u.normalize()
	if err := u.validate(); err != nil {
		return User{}, err
	}

	_, err := s.repo.GetByEmail(ctx, u.Email)
	switch {
	case err == nil:
		return User{}, ErrAlreadyExists
	case !errors.Is(err, ErrNotFound):
		return User{}, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	if err := s.repo.Create(ctx, &u); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return User{}, ErrAlreadyExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// UpdateProfile applies a partial profile change to the user's own account.
func (s *Service) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) (User, error) {
	if p.empty() {
		return User{}, apperror.Invalid("At least one field must be provided")
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.IsPublic != nil {
		u.IsPublic = *p.IsPublic
	}
	u.normalize()
	if err := u.validate(); err != nil {
		return User{}, err
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateProfile(ctx, &u); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return User{}, ErrAlreadyExists
		}
		return User{}, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}
