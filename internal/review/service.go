package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookreviews/internal/apperror"
	"bookreviews/internal/rating"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var errInvalidCursor = errors.New("invalid cursor")

// Service implements the review write operations. Every successful write is
// followed by a synchronous recompute of the affected book's aggregate.
type Service struct {
	repo    Repository
	books   BookReader
	ratings Recomputer
	now     func() time.Time
}

func NewService(repo Repository, books BookReader, ratings Recomputer) *Service {
	return &Service{repo: repo, books: books, ratings: ratings, now: time.Now}
}

// timestamp is truncated to the coarsest store precision (MongoDB keeps
// milliseconds) so cursors built from returned reviews match stored rows.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Create stores a review of in.BookID by in.UserID. A user may review a
// book once; a second attempt fails with ErrDuplicate.
func (s *Service) Create(ctx context.Context, in CreateInput) (Review, error) {
	now := s.timestamp()
	r := Review{
		ID:        uuid.NewString(),
		BookID:    in.BookID,
		UserID:    in.UserID,
		Rating:    in.Rating,
		Text:      in.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.normalize()
	if err := r.validate(); err != nil {
		return Review{}, err
	}

	if _, err := s.books.GetByID(ctx, r.BookID); err != nil {
		return Review{}, err
	}

	_, err := s.repo.GetByBookAndUser(ctx, r.BookID, r.UserID)
	switch {
	case err == nil:
		return Review{}, ErrDuplicate
	case !errors.Is(err, ErrNotFound):
		return Review{}, fmt.Errorf("check existing review: %w", err)
	}

	// The unique index on (book_id, user_id) catches a concurrent create
	// that passed the lookup above.
	if err := s.repo.Create(ctx, &r); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Review{}, ErrDuplicate
		}
		return Review{}, fmt.Errorf("create review: %w", err)
	}

	if err := s.ratings.AfterWrite(ctx, r.BookID); err != nil {
		return Review{}, err
	}

	zerolog.Ctx(ctx).Info().
		Str("review_id", r.ID).
		Str("book_id", r.BookID).
		Int("rating", r.Rating).
		Msg("review created")
	return r, nil
}

// Get returns a review by id.
func (s *Service) Get(ctx context.Context, id string) (Review, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) owned(ctx context.Context, id, requesterID string) (Review, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Review{}, err
	}
	if r.UserID != requesterID {
		return Review{}, ErrForbidden
	}
	return r, nil
}

// Update applies the fields present in p. Only the author may update a
// review.
func (s *Service) Update(ctx context.Context, id, requesterID string, p Patch) (Review, error) {
	r, err := s.owned(ctx, id, requesterID)
	if err != nil {
		return Review{}, err
	}
	if p.empty() {
		return Review{}, apperror.Invalid("At least one field must be provided")
	}

	if p.Rating != nil {
		r.Rating = *p.Rating
	}
	if p.Text != nil {
		r.Text = *p.Text
	}
	r.normalize()
	if err := r.validate(); err != nil {
		return Review{}, err
	}
	r.UpdatedAt = s.timestamp()

	if err := s.repo.Update(ctx, &r); err != nil {
		return Review{}, fmt.Errorf("update review: %w", err)
	}
	if err := s.ratings.AfterWrite(ctx, r.BookID); err != nil {
		return Review{}, err
	}
	return r, nil
}

// Delete removes a review. Only the author may delete it.
func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	r, err := s.owned(ctx, id, requesterID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, r.ID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return s.ratings.AfterWrite(ctx, r.BookID)
}

// ListByBook returns a page of a book's reviews, newest first. cursor is
// the NextCursor of the previous page, or empty for the first page.
func (s *Service) ListByBook(ctx context.Context, bookID, cursor string, limit int) (Page, error) {
	after, err := DecodeCursor(cursor)
	if err != nil {
		return Page{}, apperror.Invalid("Invalid cursor", apperror.FieldError{Field: "cursor", Message: "malformed cursor"})
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		return Page{}, err
	}

	items, err := s.repo.ListByBook(ctx, bookID, after, limit+1)
	if err != nil {
		return Page{}, fmt.Errorf("list reviews: %w", err)
	}

	page := Page{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[limit-1]
		page.NextCursor = EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// ListByUser returns a user's reviews, newest first, with the total count.
func (s *Service) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Review, int, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// Stats summarizes the ratings a user has given.
func (s *Service) Stats(ctx context.Context, userID string) (UserStats, error) {
	ratings, err := s.repo.ListRatingsByUser(ctx, userID)
	if err != nil {
		return UserStats{}, fmt.Errorf("list ratings of user: %w", err)
	}
	agg := rating.Compute(ratings)
	return UserStats{ReviewsWritten: agg.TotalReviews, AverageRatingGiven: agg.AverageRating}, nil
}

// DeleteByBook removes every review of a book and reports how many went.
// It does not recompute; the book is being deleted.
func (s *Service) DeleteByBook(ctx context.Context, bookID string) (int64, error) {
	return s.repo.DeleteByBook(ctx, bookID)
}
