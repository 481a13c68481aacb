package rating

import (
	"context"
	"errors"
	"fmt"

	"bookreviews/internal/apperror"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var recomputesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rating_recomputes_total",
		Help: "Book rating aggregate recomputations by result.",
	},
	[]string{"result"},
)

const (
	resultOK          = "ok"
	resultBookMissing = "book_missing"
	resultError       = "error"
)

// RecomputeError reports that an aggregate could not be written because the
// book no longer exists. Callers log it and carry on.
type RecomputeError struct {
	BookID string
	Err    error
}

func (e *RecomputeError) Error() string {
	return fmt.Sprintf("recompute rating of book %s: %v", e.BookID, e.Err)
}

func (e *RecomputeError) Unwrap() error {
	return e.Err
}

// Aggregator recomputes a book's rating aggregate from its reviews.
type Aggregator struct {
	reviews ReviewSource
	books   AggregateWriter
}

func NewAggregator(reviews ReviewSource, books AggregateWriter) *Aggregator {
	return &Aggregator{reviews: reviews, books: books}
}

// Recompute reads every rating of bookID and overwrites the book's
// average_rating and total_reviews. Concurrent calls for the same book are
// not serialized; the last write wins.
func (a *Aggregator) Recompute(ctx context.Context, bookID string) (Aggregate, error) {
	ratings, err := a.reviews.ListRatingsByBook(ctx, bookID)
	if err != nil {
		recomputesTotal.WithLabelValues(resultError).Inc()
		return Aggregate{}, fmt.Errorf("list ratings of book %s: %w", bookID, err)
	}

	agg := Compute(ratings)
	if err := a.books.SetRatingAggregate(ctx, bookID, agg.AverageRating, agg.TotalReviews); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			recomputesTotal.WithLabelValues(resultBookMissing).Inc()
			return Aggregate{}, &RecomputeError{BookID: bookID, Err: err}
		}
		recomputesTotal.WithLabelValues(resultError).Inc()
		return Aggregate{}, fmt.Errorf("store rating of book %s: %w", bookID, err)
	}

	recomputesTotal.WithLabelValues(resultOK).Inc()
	zerolog.Ctx(ctx).Debug().
		Str("book_id", bookID).
		Float64("average_rating", agg.AverageRating).
		Int("total_reviews", agg.TotalReviews).
		Msg("rating recomputed")
	return agg, nil
}

// AfterWrite runs Recompute at the end of a review write. A missing book is
// logged at warn level and swallowed; any other failure is returned.
func (a *Aggregator) AfterWrite(ctx context.Context, bookID string) error {
	_, err := a.Recompute(ctx, bookID)
	var recomputeErr *RecomputeError
	if errors.As(err, &recomputeErr) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("book_id", bookID).Msg("rating aggregate not updated")
		return nil
	}
	return err
}

// Report summarizes a batch recomputation.
type Report struct {
	Updated int      `json:"updated"`
	Missing []string `json:"missing,omitempty"`
}

// RecomputeMany recomputes each book in turn, stopping at the first store
// error. Books deleted in the meantime are collected in Report.Missing.
func (a *Aggregator) RecomputeMany(ctx context.Context, bookIDs []string) (Report, error) {
	var report Report
	for _, id := range bookIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		_, err := a.Recompute(ctx, id)
		var recomputeErr *RecomputeError
		switch {
		case err == nil:
			report.Updated++
		case errors.As(err, &recomputeErr):
			report.Missing = append(report.Missing, id)
		default:
			return report, err
		}
	}
	return report, nil
}
