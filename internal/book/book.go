package book

import (
	"time"

	"bookreviews/internal/apperror"
)

var (
	ErrNotFound  = apperror.NotFound("BOOK_NOT_FOUND", "Book not found")
	ErrForbidden = apperror.Forbidden("FORBIDDEN", "Only the book owner can modify this book")
	ErrInvalidID = apperror.Invalid("Invalid book id", apperror.FieldError{Field: "id", Message: "must be a valid UUID"})
)

// Genres lists the accepted values of Book.Genre.
var Genres = []string{
	"fiction", "non-fiction", "mystery", "thriller", "science-fiction", "fantasy",
	"romance", "horror", "biography", "history", "self-help", "poetry", "other",
}

// Book represents a book entity.
//
// AverageRating and TotalReviews are derived from the book's reviews. They are
// read-only here: Create and Update never persist them, only the rating
// aggregator writes them through its own store method.
type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Description     string    `json:"description,omitempty"`
	Genre           string    `json:"genre"`
	PublicationYear int       `json:"publication_year,omitempty"`
	OwnerID         string    `json:"owner_id"`
	AverageRating   float64   `json:"average_rating"`
	TotalReviews    int       `json:"total_reviews"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Query defines filters and pagination for listing books.
type Query struct {
	Genre     string
	Author    string
	OwnerID   string
	Q         string
	MinRating *float64
	Sort      string
	Desc      bool
	Limit     int
	Offset    int
}

type CreateInput struct {
	Title           string
	Author          string
	Description     string
	Genre           string
	PublicationYear int
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title           *string
	Author          *string
	Description     *string
	Genre           *string
	PublicationYear *int
}

func (in UpdateInput) empty() bool {
	return in.Title == nil && in.Author == nil && in.Description == nil &&
		in.Genre == nil && in.PublicationYear == nil
}
