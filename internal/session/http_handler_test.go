package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookreviews/internal/httpx"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authed(r *http.Request, userID string) *http.Request {
	return r.WithContext(httpx.ContextWithUser(r.Context(), userID, "USER"))
}

func TestHTTPHandler_ListSessions(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		w := httptest.NewRecorder()
		NewHTTPHandler(svc).ListSessions(w, httptest.NewRequest(http.MethodGet, "/v1/me/sessions", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("hides token hash", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.EXPECT().ListByUserID(gomock.Any(), "u-1").
			Return([]Session{{ID: "s-1", UserID: "u-1", RefreshTokenHash: "secret-hash"}}, nil)

		w := httptest.NewRecorder()
		NewHTTPHandler(svc).ListSessions(w, authed(httptest.NewRequest(http.MethodGet, "/v1/me/sessions", nil), "u-1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "secret-hash")

		var body struct {
			Data []Session     `json:"data"`
			Meta map[string]any `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Data, 1)
		assert.EqualValues(t, 1, body.Meta["count"])
	})
}

func TestHTTPHandler_DeleteSession(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.EXPECT().ListByUserID(gomock.Any(), "u-1").Return([]Session{{ID: "s-1"}}, nil)
		repo.EXPECT().Delete(gomock.Any(), "s-1").Return(nil)

		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodDelete, "/v1/me/sessions/s-1", nil), "u-1")
		r.SetPathValue("id", "s-1")
		NewHTTPHandler(svc).DeleteSession(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("not owned", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.EXPECT().ListByUserID(gomock.Any(), "u-1").Return([]Session{}, nil)

		w := httptest.NewRecorder()
		r := authed(httptest.NewRequest(http.MethodDelete, "/v1/me/sessions/s-9", nil), "u-1")
		r.SetPathValue("id", "s-9")
		NewHTTPHandler(svc).DeleteSession(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "SESSION_NOT_FOUND")
	})
}
