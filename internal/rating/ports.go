package rating

import (
	"context"

	"bookreviews/internal/book"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=rating

// ReviewSource yields the star rating of every review of a book.
type ReviewSource interface {
	ListRatingsByBook(ctx context.Context, bookID string) ([]int, error)
}

// AggregateWriter persists the derived rating fields of a book. It is the
// only write path for those fields.
type AggregateWriter interface {
	SetRatingAggregate(ctx context.Context, bookID string, average float64, total int) error
}

// BookReader loads the stored book for rating summaries.
type BookReader interface {
	GetByID(ctx context.Context, id string) (book.Book, error)
}
