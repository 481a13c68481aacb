package review

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bookreviews/internal/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authed(r *http.Request, userID string) *http.Request {
	return r.WithContext(httpx.ContextWithUser(r.Context(), userID, "user"))
}

func TestHTTPHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newFixture(t, "b1")
		handler := NewHTTPHandler(f.svc)

		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodPost, "/v1/books/b1/reviews", strings.NewReader(`{"rating":5,"text":"great"}`)), "u1")
		r.SetPathValue("id", "b1")
		handler.Create(w, r)

		require.Equal(t, http.StatusCreated, w.Code)
		avg, total := f.aggregate(t, "b1")
		assert.Equal(t, 5.0, avg)
		assert.Equal(t, 1, total)
	})

	t.Run("duplicate is 409", func(t *testing.T) {
		f := newFixture(t, "b1")
		f.create(t, "b1", "u1", 3)
		handler := NewHTTPHandler(f.svc)

		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodPost, "/v1/books/b1/reviews", strings.NewReader(`{"rating":5,"text":"again"}`)), "u1")
		r.SetPathValue("id", "b1")
		handler.Create(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "DUPLICATE_REVIEW")
	})

	t.Run("rating out of range", func(t *testing.T) {
		f := newFixture(t, "b1")
		handler := NewHTTPHandler(f.svc)

		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodPost, "/v1/books/b1/reviews", strings.NewReader(`{"rating":9,"text":"x"}`)), "u1")
		r.SetPathValue("id", "b1")
		handler.Create(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"rating"`)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		handler := NewHTTPHandler(newFixture(t, "b1").svc)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/v1/books/b1/reviews", strings.NewReader(`{}`))
		handler.Create(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHTTPHandler_UpdateDelete(t *testing.T) {
	f := newFixture(t, "b1")
	rv := f.create(t, "b1", "author", 4)
	handler := NewHTTPHandler(f.svc)

	t.Run("forbidden update", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodPatch, "/v1/reviews/"+rv.ID, strings.NewReader(`{"rating":1}`)), "someone")
		r.SetPathValue("id", rv.ID)
		handler.Update(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("author update", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodPatch, "/v1/reviews/"+rv.ID, strings.NewReader(`{"rating":2}`)), "author")
		r.SetPathValue("id", rv.ID)
		handler.Update(w, r)
		require.Equal(t, http.StatusOK, w.Code)

		avg, _ := f.aggregate(t, "b1")
		assert.Equal(t, 2.0, avg)
	})

	t.Run("empty patch", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodPatch, "/v1/reviews/"+rv.ID, strings.NewReader(`{}`)), "author")
		r.SetPathValue("id", rv.ID)
		handler.Update(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("author delete", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodDelete, "/v1/reviews/"+rv.ID, nil), "author")
		r.SetPathValue("id", rv.ID)
		handler.Delete(w, r)
		require.Equal(t, http.StatusNoContent, w.Code)

		avg, total := f.aggregate(t, "b1")
		assert.Equal(t, 0.0, avg)
		assert.Equal(t, 0, total)
	})

	t.Run("get after delete", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/v1/reviews/"+rv.ID, nil)
		r.SetPathValue("id", rv.ID)
		handler.Get(w, r)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHTTPHandler_ListByBook(t *testing.T) {
	f := newFixture(t, "b1")
	f.create(t, "b1", "u1", 5)
	f.create(t, "b1", "u2", 4)
	f.create(t, "b1", "u3", 3)
	handler := NewHTTPHandler(f.svc)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v1/books/b1/reviews?limit=2", nil)
	r.SetPathValue("id", "b1")
	handler.ListByBook(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []Review      `json:"data"`
		Meta map[string]any `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	cursor, ok := body.Meta["next_cursor"].(string)
	require.True(t, ok)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/v1/books/b1/reviews?limit=2&cursor="+cursor, nil)
	r.SetPathValue("id", "b1")
	handler.ListByBook(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	body.Data, body.Meta = nil, nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "u1", body.Data[0].UserID)
	assert.NotContains(t, body.Meta, "next_cursor")
}

func TestHTTPHandler_ListByUser(t *testing.T) {
	f := newFixture(t, "b1", "b2")
	f.create(t, "b1", "u1", 5)
	f.create(t, "b2", "u1", 4)
	handler := NewHTTPHandler(f.svc)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/v1/users/u1/reviews?page_size=1", nil)
	r.SetPathValue("id", "u1")
	handler.ListByUser(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)
	assert.Contains(t, w.Body.String(), `"total_pages":2`)
}
