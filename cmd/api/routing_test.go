package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookreviews/internal/book"
	"bookreviews/internal/config"
	"bookreviews/internal/rating"
	"bookreviews/internal/review"
	"bookreviews/internal/session"
	"bookreviews/internal/storage"
	"bookreviews/internal/testutil"
	"bookreviews/internal/user"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

const testSecret = "routing-secret"

type bookStore struct {
	*book.MockRepository
	*rating.MockAggregateWriter
}

type routingFixture struct {
	handler   http.Handler
	books     *book.MockRepository
	users     *user.MockRepository
	blacklist *session.MockBlacklistRepository
}

func newRoutingFixture(t *testing.T) routingFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := routingFixture{
		books:     book.NewMockRepository(ctrl),
		users:     user.NewMockRepository(ctrl),
		blacklist: session.NewMockBlacklistRepository(ctrl),
	}
	st := &storage.Stores{
		Books:     bookStore{f.books, rating.NewMockAggregateWriter(ctrl)},
		Reviews:   review.NewMockRepository(ctrl),
		Users:     f.users,
		Sessions:  session.NewMockRepository(ctrl),
		Blacklist: f.blacklist,
	}
	cfg := config.Config{
		JWTSecret:      testSecret,
		AccessTokenTTL: 15 * time.Minute,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		MaxBodyBytes:   1 << 20,
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	f.handler = newApp(cfg, st).handler(ctx, zerolog.Nop())
	return f
}

func (f routingFixture) do(r *http.Request) testutil.Response {
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return testutil.RecordHTTPResponse(w)
}

func TestRouting_Probes(t *testing.T) {
	f := newRoutingFixture(t)

	assert.Equal(t, http.StatusOK, f.do(testutil.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusOK, f.do(testutil.NewRequest(http.MethodGet, "/readyz", nil)).Code)
	assert.Equal(t, http.StatusOK, f.do(testutil.NewRequest(http.MethodGet, "/metrics", nil)).Code)
}

func TestRouting_V1PrefixRequired(t *testing.T) {
	f := newRoutingFixture(t)

	resp := f.do(testutil.NewRequest(http.MethodGet, "/books", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestRouting_MethodNotAllowed(t *testing.T) {
	f := newRoutingFixture(t)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(testutil.NewRequest(http.MethodPut, "/v1/books", nil)).Code)
}

func TestRouting_PublicBookRead(t *testing.T) {
	f := newRoutingFixture(t)
	f.books.EXPECT().GetByID(gomock.Any(), "b-1").
		Return(book.Book{ID: "b-1", Title: "Dune", AverageRating: 4.5, TotalReviews: 2}, nil)

	resp := f.do(testutil.NewRequest(http.MethodGet, "/v1/books/b-1", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "b-1", resp.Data()["id"])
	assert.EqualValues(t, 4.5, resp.Data()["average_rating"])
}

func TestRouting_ProtectedRoutes(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		f := newRoutingFixture(t)
		resp := f.do(testutil.NewRequest(http.MethodPost, "/v1/books/b-1/reviews", map[string]any{"rating": 5, "text": "x"}))
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "UNAUTHORIZED", resp.ErrorCode())
	})

	t.Run("expired token", func(t *testing.T) {
		f := newRoutingFixture(t)
		token := testutil.GenerateExpiredToken(testSecret, "u-1", user.RoleUser)
		resp := f.do(testutil.NewRequestWithAuth(http.MethodGet, "/v1/me", nil, token))
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		f := newRoutingFixture(t)
		f.blacklist.EXPECT().IsBlacklisted(gomock.Any(), gomock.Any()).Return(true, nil)

		token := testutil.GenerateTestToken(testSecret, "u-1", user.RoleUser)
		resp := f.do(testutil.NewRequestWithAuth(http.MethodGet, "/v1/me", nil, token))
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		f := newRoutingFixture(t)
		f.blacklist.EXPECT().IsBlacklisted(gomock.Any(), gomock.Any()).Return(false, nil)
		f.users.EXPECT().GetByID(gomock.Any(), "u-1").Return(user.User{ID: "u-1", Username: "ann"}, nil)

		token := testutil.GenerateTestToken(testSecret, "u-1", user.RoleUser)
		resp := f.do(testutil.NewRequestWithAuth(http.MethodGet, "/v1/me", nil, token))
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "ann", resp.Data()["username"])
	})
}
