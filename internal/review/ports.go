package review

import (
	"context"

	"bookreviews/internal/book"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=review

// Repository is the review store. ListRatingsByBook feeds the rating
// aggregator and DeleteByBook serves the book deletion cascade.
type Repository interface {
	Create(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id string) (Review, error)
	GetByBookAndUser(ctx context.Context, bookID, userID string) (Review, error)
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id string) error
	ListByBook(ctx context.Context, bookID string, after *Cursor, limit int) ([]Review, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Review, int, error)
	ListRatingsByBook(ctx context.Context, bookID string) ([]int, error)
	ListRatingsByUser(ctx context.Context, userID string) ([]int, error)
	DeleteByBook(ctx context.Context, bookID string) (int64, error)
}

type BookReader interface {
	GetByID(ctx context.Context, id string) (book.Book, error)
}

// Recomputer refreshes a book's rating aggregate after a review write.
type Recomputer interface {
	AfterWrite(ctx context.Context, bookID string) error
}
