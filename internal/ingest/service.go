package ingest

import (
	"context"
	"errors"
	"fmt"

	"bookreviews/internal/apperror"
	"bookreviews/internal/book"
	"bookreviews/internal/platform/openlibrary"

	"github.com/rs/zerolog"
)

const defaultBatchSize = 20

// EditionSource looks editions up by ISBN.
type EditionSource interface {
	GetEditionsByISBN(ctx context.Context, isbns []string) (map[string]openlibrary.Edition, error)
}

// BookCreator is satisfied by *book.Service, so imported books go through
// the same validation as API writes and start with an empty rating.
type BookCreator interface {
	Create(ctx context.Context, ownerID string, in book.CreateInput) (book.Book, error)
}

type Service struct {
	source    EditionSource
	books     BookCreator
	batchSize int
}

func NewService(source EditionSource, books BookCreator) *Service {
	return &Service{source: source, books: books, batchSize: defaultBatchSize}
}

// Import creates one book per known ISBN, owned by ownerID. Duplicate and
// malformed ISBNs are skipped; editions the book rules reject are reported
// in Result.Rejected. Lookup or store failures abort the import and return
// what was imported so far.
func (s *Service) Import(ctx context.Context, ownerID string, isbns []string) (Result, error) {
	res := Result{Rejected: map[string]string{}}

	seen := make(map[string]bool, len(isbns))
	valid := make([]string, 0, len(isbns))
	for _, raw := range isbns {
		isbn, ok := NormalizeISBN(raw)
		if !ok {
			res.Invalid = append(res.Invalid, raw)
			continue
		}
		if seen[isbn] {
			continue
		}
		seen[isbn] = true
		valid = append(valid, isbn)
	}

	for start := 0; start < len(valid); start += s.batchSize {
		batch := valid[start:min(start+s.batchSize, len(valid))]
		if err := s.importBatch(ctx, ownerID, batch, &res); err != nil {
			return res, err
		}
	}

	zerolog.Ctx(ctx).Info().
		Int("imported", len(res.Imported)).
		Int("not_found", len(res.NotFound)).
		Int("invalid", len(res.Invalid)).
		Int("rejected", len(res.Rejected)).
		Msg("open library import finished")
	return res, nil
}

func (s *Service) importBatch(ctx context.Context, ownerID string, isbns []string, res *Result) error {
	editions, err := s.source.GetEditionsByISBN(ctx, isbns)
	if err != nil {
		return fmt.Errorf("look up isbns: %w", err)
	}

	for _, isbn := range isbns {
		ed, ok := editions[isbn]
		if !ok {
			res.NotFound = append(res.NotFound, isbn)
			continue
		}

		b, err := s.books.Create(ctx, ownerID, toCreateInput(ed))
		if errors.Is(err, apperror.ErrValidation) {
			res.Rejected[isbn] = err.Error()
			zerolog.Ctx(ctx).Warn().Err(err).Str("isbn", isbn).Msg("edition rejected")
			continue
		}
		if err != nil {
			return fmt.Errorf("create book for isbn %s: %w", isbn, err)
		}
		res.Imported = append(res.Imported, b)
	}
	return nil
}
