package book

import (
	"context"
	"fmt"
	"time"

	"bookreviews/internal/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service provides book-related business logic.
type Service struct {
	repo    Repository
	reviews ReviewPurger
	now     func() time.Time
}

// NewService creates a new book service.
func NewService(repo Repository, reviews ReviewPurger) *Service {
	return &Service{repo: repo, reviews: reviews, now: time.Now}
}

// Create stores a new book owned by ownerID with an empty rating aggregate.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (Book, error) {
	now := s.now().UTC()
	b := Book{
		ID:              uuid.NewString(),
		Title:           in.Title,
		Author:          in.Author,
		Description:     in.Description,
		Genre:           in.Genre,
		PublicationYear: in.PublicationYear,
		OwnerID:         ownerID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.normalize()
	if err := b.validate(); err != nil {
		return Book{}, err
	}

	if err := s.repo.Create(ctx, &b); err != nil {
		return Book{}, fmt.Errorf("create book: %w", err)
	}
	return b, nil
}

// GetByID returns a book by its id.
func (s *Service) GetByID(ctx context.Context, id string) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of books matching the query and the total match count.
func (s *Service) List(ctx context.Context, q Query) ([]Book, int, error) {
	if q.Limit <= 0 || q.Limit > maxPageSize {
		q.Limit = defaultPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.repo.List(ctx, q)
}

// Update applies a partial update. Only the owner may update a book.
func (s *Service) Update(ctx context.Context, id, requesterID string, in UpdateInput) (Book, error) {
	if in.empty() {
		return Book{}, apperror.Invalid("At least one field must be provided")
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Book{}, err
	}
	if b.OwnerID != requesterID {
		return Book{}, ErrForbidden
	}

	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.Author != nil {
		b.Author = *in.Author
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.Genre != nil {
		b.Genre = *in.Genre
	}
	if in.PublicationYear != nil {
		b.PublicationYear = *in.PublicationYear
	}
	b.normalize()
	if err := b.validate(); err != nil {
		return Book{}, err
	}
	b.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, &b); err != nil {
		return Book{}, fmt.Errorf("update book: %w", err)
	}
	return b, nil
}

// Delete removes a book and all of its reviews. Only the owner may delete a
// book. No aggregate is recomputed since the book is gone.
func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if b.OwnerID != requesterID {
		return ErrForbidden
	}

	purged, err := s.reviews.DeleteByBook(ctx, id)
	if err != nil {
		return fmt.Errorf("delete reviews of book %s: %w", id, err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("book_id", id).
		Int64("reviews_deleted", purged).
		Msg("book deleted")
	return nil
}

// ListIDs returns every book id, used by reconciliation jobs.
func (s *Service) ListIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListIDs(ctx)
}
