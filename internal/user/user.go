package user

import (
	"strings"
	"time"

	"bookreviews/internal/apperror"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"

	maxBioLength = 500
)

var (
	ErrNotFound      = apperror.NotFound("USER_NOT_FOUND", "User not found")
	ErrAlreadyExists = apperror.Conflict("ALREADY_EXISTS", "Email or username already exists")
	ErrInvalidID     = apperror.Invalid("Invalid user id", apperror.FieldError{Field: "id", Message: "must be a valid UUID"})
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email,omitempty"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	IsPublic     bool      `json:"is_public"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Public strips the fields only the account owner may see.
func (u User) Public() User {
	u.Email = ""
	u.Role = ""
	u.PasswordHash = ""
	return u
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// ProfileUpdate is a partial profile change; nil fields are left unchanged.
type ProfileUpdate struct {
	Username *string
	Bio      *string
	IsPublic *bool
}

func (p ProfileUpdate) empty() bool {
	return p.Username == nil && p.Bio == nil && p.IsPublic == nil
}

func (u *User) normalize() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Username = strings.TrimSpace(u.Username)
	u.Bio = strings.TrimSpace(u.Bio)
}

func (u User) validate() error {
	err := validation.ValidateStruct(&u,
		validation.Field(&u.Email, validation.Required, is.EmailFormat),
		validation.Field(&u.Username, validation.Required, validation.RuneLength(3, 50)),
		validation.Field(&u.Bio, validation.RuneLength(0, maxBioLength)),
	)
	return apperror.FromValidation(err)
}
