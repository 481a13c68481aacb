package rating

import (
	"context"
)

// Service serves read-side rating summaries.
type Service struct {
	books   BookReader
	reviews ReviewSource
}

func NewService(books BookReader, reviews ReviewSource) *Service {
	return &Service{books: books, reviews: reviews}
}

// Summary returns the stored aggregate of a book along with the current
// distribution of its ratings.
func (s *Service) Summary(ctx context.Context, bookID string) (Summary, error) {
	b, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return Summary{}, err
	}
	ratings, err := s.reviews.ListRatingsByBook(ctx, bookID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		BookID:       b.ID,
		Aggregate:    Aggregate{AverageRating: b.AverageRating, TotalReviews: b.TotalReviews},
		Distribution: Distribution(ratings),
	}, nil
}
