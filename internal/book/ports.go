package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

// Repository defines the contract for book data storage. It deliberately has
// no way to write the rating aggregate.
type Repository interface {
	Create(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, id string) (Book, error)
	List(ctx context.Context, q Query) ([]Book, int, error)
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id string) error
	ListIDs(ctx context.Context) ([]string, error)
}

// ReviewPurger removes every review of a book before the book itself goes.
type ReviewPurger interface {
	DeleteByBook(ctx context.Context, bookID string) (int64, error)
}
