package book

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookreviews/internal/httpx"

	"github.com/golang/mock/gomock"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*HTTPHandler, *MockRepository, *MockReviewPurger) {
	t.Helper()
	svc, repo, purger := newTestService(t)
	return NewHTTPHandler(svc), repo, purger
}

func authed(r *http.Request, userID string) *http.Request {
	return r.WithContext(httpx.ContextWithUser(r.Context(), userID, "user"))
}

func TestHTTPHandler_List(t *testing.T) {
	testBook := Book{ID: "1", Title: "Test", Genre: "fiction", AverageRating: 4.2, TotalReviews: 5}

	t.Run("success", func(t *testing.T) {
		handler, repo, _ := newTestHandler(t)
		repo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, q Query) ([]Book, int, error) {
			assert.Equal(t, "fiction", q.Genre)
			require.NotNil(t, q.MinRating)
			assert.Equal(t, 4.0, *q.MinRating)
			assert.Equal(t, 10, q.Limit)
			assert.Equal(t, 10, q.Offset)
			return []Book{testBook}, 11, nil
		})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books?genre=Fiction&min_rating=4&page=2&page_size=10", nil)
		handler.List(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data []Book        `json:"data"`
			Meta map[string]any `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, 4.2, body.Data[0].AverageRating)
		assert.EqualValues(t, 2, body.Meta["total_pages"])
	})

	t.Run("error", func(t *testing.T) {
		handler, repo, _ := newTestHandler(t)
		repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, 0, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books", nil)
		handler.List(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHTTPHandler_Get(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, repo, _ := newTestHandler(t)
		repo.EXPECT().GetByID(gomock.Any(), "b1").Return(Book{ID: "b1", Title: "Test"}, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/b1", nil)
		r.SetPathValue("id", "b1")
		handler.Get(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"average_rating":0`)
		assert.Contains(t, w.Body.String(), `"total_reviews":0`)
	})

	t.Run("not found", func(t *testing.T) {
		handler, repo, _ := newTestHandler(t)
		repo.EXPECT().GetByID(gomock.Any(), "b1").Return(Book{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/b1", nil)
		r.SetPathValue("id", "b1")
		handler.Get(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "BOOK_NOT_FOUND")
	})
}

func TestHTTPHandler_Create(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		handler, _, _ := newTestHandler(t)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/v1/books", strings.NewReader(`{}`))
		handler.Create(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		handler, _, _ := newTestHandler(t)
		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodPost, "/v1/books", strings.NewReader(`{"title":"  "}`)), "u1")
		handler.Create(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("client cannot seed the aggregate", func(t *testing.T) {
		handler, repo, _ := newTestHandler(t)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b *Book) error {
			assert.Zero(t, b.AverageRating)
			assert.Zero(t, b.TotalReviews)
			return nil
		})

		body := `{"title":"Dune","author":"Frank Herbert","genre":"fiction","average_rating":5,"total_reviews":99}`
		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodPost, "/v1/books", strings.NewReader(body)), "u1")
		handler.Create(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"owner_id":"u1"`)
	})
}

func TestHTTPHandler_UpdateAndDelete(t *testing.T) {
	existing := Book{ID: "b1", Title: "Old", Author: "A", Genre: "fiction", OwnerID: "owner-1"}

	t.Run("update forbidden", func(t *testing.T) {
		handler, repo, _ := newTestHandler(t)
		repo.EXPECT().GetByID(gomock.Any(), "b1").Return(existing, nil)

		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodPatch, "/v1/books/b1", strings.NewReader(`{"title":"New"}`)), "other")
		r.SetPathValue("id", "b1")
		handler.Update(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("update malformed body", func(t *testing.T) {
		handler, _, _ := newTestHandler(t)
		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodPatch, "/v1/books/b1", strings.NewReader(`{`)), "owner-1")
		r.SetPathValue("id", "b1")
		handler.Update(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		handler, repo, purger := newTestHandler(t)
		repo.EXPECT().GetByID(gomock.Any(), "b1").Return(existing, nil)
		purger.EXPECT().DeleteByBook(gomock.Any(), "b1").Return(int64(0), nil)
		repo.EXPECT().Delete(gomock.Any(), "b1").Return(nil)

		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodDelete, "/v1/books/b1", nil), "owner-1")
		r.SetPathValue("id", "b1")
		handler.Delete(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestHTTPHandler_MalformedIDOnPostgres(t *testing.T) {
	invalidUUID := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "not-a-uuid"`}

	newHandler := func(t *testing.T) (*HTTPHandler, pgxmock.PgxPoolIface) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		t.Cleanup(mock.Close)
		svc := NewService(NewPostgresRepo(mock, time.Second), NewMockReviewPurger(gomock.NewController(t)))
		return NewHTTPHandler(svc), mock
	}

	t.Run("get", func(t *testing.T) {
		handler, mock := newHandler(t)
		mock.ExpectQuery("FROM books WHERE id =").WithArgs("not-a-uuid").WillReturnError(invalidUUID)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/books/not-a-uuid", nil)
		r.SetPathValue("id", "not-a-uuid")
		handler.Get(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		handler, mock := newHandler(t)
		mock.ExpectQuery("FROM books WHERE id =").WithArgs("not-a-uuid").WillReturnError(invalidUUID)

		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodDelete, "/v1/books/not-a-uuid", nil), "owner-1")
		r.SetPathValue("id", "not-a-uuid")
		handler.Delete(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotContains(t, w.Body.String(), "INTERNAL_ERROR")
	})
}
