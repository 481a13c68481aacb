package review

import (
	"strings"
	"time"

	"bookreviews/internal/apperror"
	"bookreviews/internal/rating"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxTextLength is the longest review text accepted, in characters.
const MaxTextLength = 1000

var (
	ErrNotFound  = apperror.NotFound("REVIEW_NOT_FOUND", "Review not found")
	ErrForbidden = apperror.Forbidden("FORBIDDEN", "Only the review author can modify this review")
	ErrDuplicate = apperror.Conflict("DUPLICATE_REVIEW", "You have already reviewed this book")
	ErrInvalidID = apperror.Invalid("Invalid id", apperror.FieldError{Field: "id", Message: "must be a valid UUID"})
)

type Review struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateInput struct {
	BookID string
	UserID string
	Rating int
	Text   string
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Rating *int
	Text   *string
}

func (p Patch) empty() bool {
	return p.Rating == nil && p.Text == nil
}

// Page is one keyset page of reviews, newest first.
type Page struct {
	Items      []Review `json:"items"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// UserStats describes the reviews a user has written.
type UserStats struct {
	ReviewsWritten     int     `json:"reviews_written"`
	AverageRatingGiven float64 `json:"average_rating_given"`
}

func (r *Review) normalize() {
	r.Text = strings.TrimSpace(r.Text)
}

func (r Review) validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Rating, validation.Required, validation.Min(rating.MinRating), validation.Max(rating.MaxRating)),
		validation.Field(&r.Text, validation.Required, validation.RuneLength(1, MaxTextLength)),
	)
	return apperror.FromValidation(err)
}
