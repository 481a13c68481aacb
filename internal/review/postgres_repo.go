package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookreviews/internal/platform/postgres"

	"github.com/jackc/pgx/v5"
)

const reviewColumns = `id, book_id, user_id, rating, text, created_at, updated_at`

type PostgresRepo struct {
	db      postgres.DBTX
	timeout time.Duration
}

func NewPostgresRepo(db postgres.DBTX, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// dbError wraps a driver error with op, except that a malformed id can never
// name a stored review and is reported as ErrInvalidID.
func dbError(op string, err error) error {
	if postgres.IsInvalidText(err) {
		return ErrInvalidID
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanReview(row pgx.Row, rv *Review) error {
	return row.Scan(&rv.ID, &rv.BookID, &rv.UserID, &rv.Rating, &rv.Text, &rv.CreatedAt, &rv.UpdatedAt)
}

func collectReviews(rows pgx.Rows) ([]Review, error) {
	defer rows.Close()
	out := []Review{}
	for rows.Next() {
		var rv Review
		if err := scanReview(rows, &rv); err != nil {
			return nil, dbError("scan review", err)
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, rv *Review) error {
	const query = `
		INSERT INTO reviews (id, book_id, user_id, rating, text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.db.Exec(timeoutCtx, query,
		rv.ID, rv.BookID, rv.UserID, rv.Rating, rv.Text, rv.CreatedAt, rv.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return dbError("insert review", err)
	}
	return nil
}

func (r *PostgresRepo) getOne(ctx context.Context, query string, args ...any) (Review, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rv Review
	if err := scanReview(r.db.QueryRow(timeoutCtx, query, args...), &rv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, dbError("scan review", err)
	}
	return rv, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Review, error) {
	return r.getOne(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
}

func (r *PostgresRepo) GetByBookAndUser(ctx context.Context, bookID, userID string) (Review, error) {
	return r.getOne(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE book_id = $1 AND user_id = $2`, bookID, userID)
}

func (r *PostgresRepo) Update(ctx context.Context, rv *Review) error {
	const query = `UPDATE reviews SET rating = $2, text = $3, updated_at = $4 WHERE id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, rv.ID, rv.Rating, rv.Text, rv.UpdatedAt)
	if err != nil {
		return dbError("update review", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return dbError("delete review", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByBook pages through a book's reviews in (created_at, id) descending
// order, starting after the cursor when one is given.
func (r *PostgresRepo) ListByBook(ctx context.Context, bookID string, after *Cursor, limit int) ([]Review, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		rows pgx.Rows
		err  error
	)
	if after == nil {
		rows, err = r.db.Query(timeoutCtx, `
			SELECT `+reviewColumns+` FROM reviews
			WHERE book_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, bookID, limit)
	} else {
		rows, err = r.db.Query(timeoutCtx, `
			SELECT `+reviewColumns+` FROM reviews
			WHERE book_id = $1 AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4`, bookID, after.CreatedAt, after.ID, limit)
	}
	if err != nil {
		return nil, dbError("list reviews by book", err)
	}
	return collectReviews(rows)
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Review, int, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRow(timeoutCtx, `SELECT COUNT(*) FROM reviews WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, dbError("count reviews by user", err)
	}

	rows, err := r.db.Query(timeoutCtx, `
		SELECT `+reviewColumns+` FROM reviews
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, dbError("list reviews by user", err)
	}
	out, err := collectReviews(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PostgresRepo) listRatings(ctx context.Context, query, id string) ([]int, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, id)
	if err != nil {
		return nil, dbError("list ratings", err)
	}
	ratings, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, dbError("scan ratings", err)
	}
	return ratings, nil
}

func (r *PostgresRepo) ListRatingsByBook(ctx context.Context, bookID string) ([]int, error) {
	return r.listRatings(ctx, `SELECT rating FROM reviews WHERE book_id = $1`, bookID)
}

func (r *PostgresRepo) ListRatingsByUser(ctx context.Context, userID string) ([]int, error) {
	return r.listRatings(ctx, `SELECT rating FROM reviews WHERE user_id = $1`, userID)
}

func (r *PostgresRepo) DeleteByBook(ctx context.Context, bookID string) (int64, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM reviews WHERE book_id = $1`, bookID)
	if err != nil {
		return 0, dbError("delete reviews by book", err)
	}
	return tag.RowsAffected(), nil
}
