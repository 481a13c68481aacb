package review

import (
	"context"
	"sort"
	"sync"

	"bookreviews/internal/book"
)

// memReviews is an in-memory Repository that enforces the (book, user)
// uniqueness the real stores get from their indexes.
type memReviews struct {
	mu   sync.Mutex
	rows map[string]Review
}

func newMemReviews() *memReviews {
	return &memReviews{rows: map[string]Review{}}
}

func (m *memReviews) Create(_ context.Context, r *Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.BookID == r.BookID && existing.UserID == r.UserID {
			return ErrDuplicate
		}
	}
	m.rows[r.ID] = *r
	return nil
}

func (m *memReviews) GetByID(_ context.Context, id string) (Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return Review{}, ErrNotFound
	}
	return r, nil
}

func (m *memReviews) GetByBookAndUser(_ context.Context, bookID, userID string) (Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.BookID == bookID && r.UserID == userID {
			return r, nil
		}
	}
	return Review{}, ErrNotFound
}

func (m *memReviews) Update(_ context.Context, r *Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[r.ID]; !ok {
		return ErrNotFound
	}
	m.rows[r.ID] = *r
	return nil
}

func (m *memReviews) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memReviews) sorted(keep func(Review) bool) []Review {
	out := []Review{}
	for _, r := range m.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memReviews) ListByBook(_ context.Context, bookID string, after *Cursor, limit int) ([]Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sorted(func(r Review) bool {
		if r.BookID != bookID {
			return false
		}
		if after == nil {
			return true
		}
		return r.CreatedAt.Before(after.CreatedAt) || (r.CreatedAt.Equal(after.CreatedAt) && r.ID < after.ID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memReviews) ListByUser(_ context.Context, userID string, limit, offset int) ([]Review, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sorted(func(r Review) bool { return r.UserID == userID })
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *memReviews) ratings(keep func(Review) bool) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for _, r := range m.rows {
		if keep(r) {
			out = append(out, r.Rating)
		}
	}
	return out
}

func (m *memReviews) ListRatingsByBook(_ context.Context, bookID string) ([]int, error) {
	return m.ratings(func(r Review) bool { return r.BookID == bookID }), nil
}

func (m *memReviews) ListRatingsByUser(_ context.Context, userID string) ([]int, error) {
	return m.ratings(func(r Review) bool { return r.UserID == userID }), nil
}

func (m *memReviews) DeleteByBook(_ context.Context, bookID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, r := range m.rows {
		if r.BookID == bookID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

// memBooks holds books and accepts aggregate writes like the book stores.
type memBooks struct {
	mu    sync.Mutex
	books map[string]book.Book
}

func newMemBooks(ids ...string) *memBooks {
	m := &memBooks{books: map[string]book.Book{}}
	for _, id := range ids {
		m.books[id] = book.Book{ID: id, Title: "Book " + id, OwnerID: "owner"}
	}
	return m
}

func (m *memBooks) GetByID(_ context.Context, id string) (book.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	return b, nil
}

func (m *memBooks) SetRatingAggregate(_ context.Context, bookID string, average float64, total int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookID]
	if !ok {
		return book.ErrNotFound
	}
	b.AverageRating = average
	b.TotalReviews = total
	m.books[bookID] = b
	return nil
}

func (m *memBooks) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, id)
}
