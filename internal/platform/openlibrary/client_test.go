package openlibrary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, retries int) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(Options{BaseURL: srv.URL, UserAgent: "reviewctl-test", RPS: 1000, MaxRetries: retries, BreakerFailures: 100})
	c.backoff = time.Millisecond
	return c
}

func TestGetEditionsByISBN(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/books", r.URL.Path)
		assert.Equal(t, "ISBN:9780441013593,ISBN:0000000000", r.URL.Query().Get("bibkeys"))
		assert.Equal(t, "data", r.URL.Query().Get("jscmd"))
		assert.Equal(t, "reviewctl-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"ISBN:9780441013593": {
				"title": "Dune",
				"publish_date": "2005",
				"authors": [{"name": "Frank Herbert", "url": "/authors/OL79034A"}],
				"subjects": [{"name": "Science fiction"}],
				"notes": {"type": "/type/text", "value": "Reissue."}
			}
		}`))
	}, 0)

	got, err := c.GetEditionsByISBN(context.Background(), []string{"9780441013593", "0000000000"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	ed := got["9780441013593"]
	assert.Equal(t, "Dune", ed.Title)
	assert.Equal(t, "Frank Herbert", ed.Authors[0].Name)
	assert.Equal(t, Text("Reissue."), ed.Notes)
}

func TestGetEditionsByISBN_Empty(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1"})
	got, err := c.GetEditionsByISBN(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}, 3)

	_, err := c.GetEditionsByISBN(context.Background(), []string{"1"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestGet_GivesUp(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, 2)

	_, err := c.GetEditionsByISBN(context.Background(), []string{"1"})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.EqualValues(t, 3, calls.Load())
}

func TestGet_ClientErrorIsFinal(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}, 3)

	_, err := c.GetEditionsByISBN(context.Background(), []string{"1"})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.EqualValues(t, 1, calls.Load())
}

func TestGet_ContextCancelledDuringBackoff(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, 5)
	c.backoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetEditionsByISBN(ctx, []string{"1"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGet_BreakerOpensOnOutage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, RPS: 1000, MaxRetries: 5, BreakerFailures: 2, BreakerCooldown: time.Hour})
	c.backoff = time.Millisecond

	_, err := c.GetEditionsByISBN(context.Background(), []string{"1"})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.EqualValues(t, 2, calls.Load())

	_, err = c.GetEditionsByISBN(context.Background(), []string{"1"})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGet_NotFoundDoesNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, 0)
	c.breaker = newBreaker(1, time.Hour)

	for i := 0; i < 3; i++ {
		_, err := c.GetEditionsByISBN(context.Background(), []string{"1"})
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.Code)
	}
}
