package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookreviews/internal/platform/postgres"

	"github.com/jackc/pgx/v5"
)

const bookColumns = `id, title, author, description, genre, publication_year, owner_id,
		       average_rating, total_reviews, created_at, updated_at`

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
// name a stored book and is reported as ErrInvalidID.
func dbError(op string, err error) error {
	if postgres.IsInvalidText(err) {
		return ErrInvalidID
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanBook(row pgx.Row, b *Book) error {
	return row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Description, &b.Genre, &b.PublicationYear, &b.OwnerID,
		&b.AverageRating, &b.TotalReviews, &b.CreatedAt, &b.UpdatedAt,
	)
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	const query = `
		INSERT INTO books (id, title, author, description, genre, publication_year, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.db.Exec(timeoutCtx, query,
		b.ID, b.Title, b.Author, b.Description, b.Genre, b.PublicationYear, b.OwnerID,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return dbError("insert book", err)
	}
	return nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var b Book
	if err := scanBook(r.db.QueryRow(timeoutCtx, query, id), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, dbError("scan book", err)
	}
	return b, nil
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.Genre != "" {
		clauses = append(clauses, fmt.Sprintf("genre = $%d", argn))
		args = append(args, q.Genre)
		argn++
	}

	if q.Author != "" {
		clauses = append(clauses, fmt.Sprintf("author ILIKE $%d", argn))
		args = append(args, "%"+q.Author+"%")
		argn++
	}

	if q.OwnerID != "" {
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", argn))
		args = append(args, q.OwnerID)
		argn++
	}

	if q.Q != "" {
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR author ILIKE $%d OR description ILIKE $%d)", argn, argn, argn))
		args = append(args, "%"+q.Q+"%")
		argn++
	}

	if q.MinRating != nil {
		clauses = append(clauses, fmt.Sprintf("average_rating >= $%d", argn))
		args = append(args, *q.MinRating)
		argn++
	}

	where := "WHERE " + strings.Join(clauses, " AND ")

	var sortCol string
	switch q.Sort {
	case "created_at":
		sortCol = "created_at"
	case "rating":
		sortCol = "average_rating"
	case "year":
		sortCol = "publication_year"
	default:
		sortCol = "title"
	}
	order := "ASC"
	if q.Desc {
		order = "DESC"
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int
	countSQL := "SELECT COUNT(*) FROM books " + where
	if err := r.db.QueryRow(timeoutCtx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, dbError("count books", err)
	}

	dataSQL := fmt.Sprintf(`SELECT %s FROM books %s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d`,
		bookColumns, where, sortCol, order, argn, argn+1)
	argsWithPage := append(append([]any{}, args...), q.Limit, q.Offset)

	rows, err := r.db.Query(timeoutCtx, dataSQL, argsWithPage...)
	if err != nil {
		return nil, 0, dbError("list books", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		var b Book
		if err := scanBook(rows, &b); err != nil {
			return nil, 0, dbError("scan book", err)
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

// Update writes the client-editable fields only.
func (r *PostgresRepo) Update(ctx context.Context, b *Book) error {
	const query = `
		UPDATE books
		SET title = $2, author = $3, description = $4, genre = $5, publication_year = $6, updated_at = $7
		WHERE id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query,
		b.ID, b.Title, b.Author, b.Description, b.Genre, b.PublicationYear, b.UpdatedAt,
	)
	if err != nil {
		return dbError("update book", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return dbError("delete book", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListIDs(ctx context.Context) ([]string, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, `SELECT id FROM books ORDER BY created_at, id`)
	if err != nil {
		return nil, dbError("list book ids", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dbError("scan book ids", err)
	}
	return ids, nil
}

// SetRatingAggregate overwrites the derived rating fields of a book and
// nothing else. It returns ErrNotFound when the book no longer exists.
func (r *PostgresRepo) SetRatingAggregate(ctx context.Context, bookID string, average float64, total int) error {
	const query = `UPDATE books SET average_rating = $2, total_reviews = $3 WHERE id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, bookID, average, total)
	if err != nil {
		return dbError("set rating aggregate", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
