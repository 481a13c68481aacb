package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookreviews/internal/apperror"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *MockRepository, *MockBlacklistRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	blacklist := NewMockBlacklistRepository(ctrl)
	svc := NewService(repo, blacklist)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, blacklist
}

func TestHashToken(t *testing.T) {
	h := HashToken("refresh")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashToken("refresh"))
	assert.NotEqual(t, h, HashToken("refresh2"))
}

func TestService_Create(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, s *Session) error {
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, fixedNow, s.CreatedAt)
		assert.Equal(t, fixedNow, s.LastUsedAt)
		return nil
	})

	s := &Session{UserID: "u-1", RefreshTokenHash: "h", ExpiresAt: fixedNow.Add(time.Hour)}
	require.NoError(t, svc.Create(context.Background(), s))

	t.Run("rotation keeps the login time", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		login := fixedNow.Add(-48 * time.Hour)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

		rotated := &Session{ID: "old", UserID: "u-1", CreatedAt: login, ExpiresAt: fixedNow.Add(time.Hour)}
		require.NoError(t, svc.Create(context.Background(), rotated))
		assert.NotEqual(t, "old", rotated.ID)
		assert.Equal(t, login, rotated.CreatedAt)
		assert.Equal(t, fixedNow, rotated.LastUsedAt)
	})
}

func TestService_GetByTokenHash(t *testing.T) {
	t.Run("live session", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.EXPECT().GetByTokenHash(gomock.Any(), "h").Return(Session{ID: "s-1", ExpiresAt: fixedNow.Add(time.Minute)}, nil)

		s, err := svc.GetByTokenHash(context.Background(), "h")
		require.NoError(t, err)
		assert.Equal(t, "s-1", s.ID)
	})

	t.Run("expired session is not found", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.EXPECT().GetByTokenHash(gomock.Any(), "h").Return(Session{ID: "s-1", ExpiresAt: fixedNow}, nil)

		_, err := svc.GetByTokenHash(context.Background(), "h")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestService_DeleteForUser(t *testing.T) {
	owned := []Session{{ID: "s-1", UserID: "u-1"}}

	t.Run("own session", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.EXPECT().ListByUserID(gomock.Any(), "u-1").Return(owned, nil)
		repo.EXPECT().Delete(gomock.Any(), "s-1").Return(nil)

		assert.NoError(t, svc.DeleteForUser(context.Background(), "u-1", "s-1"))
	})

	t.Run("someone else's session", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.EXPECT().ListByUserID(gomock.Any(), "u-1").Return(owned, nil)

		assert.ErrorIs(t, svc.DeleteForUser(context.Background(), "u-1", "s-other"), ErrNotFound)
	})
}

func TestService_Blacklist(t *testing.T) {
	svc, _, blacklist := newTestService(t)
	exp := fixedNow.Add(15 * time.Minute)

	blacklist.EXPECT().AddToken(gomock.Any(), "jti", "u-1", exp).Return(nil)
	blacklist.EXPECT().IsBlacklisted(gomock.Any(), "jti").Return(true, nil)

	require.NoError(t, svc.Blacklist(context.Background(), "jti", "u-1", exp))

	revoked, err := svc.IsBlacklisted(context.Background(), "jti")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestService_CleanupExpired(t *testing.T) {
	t.Run("both stores", func(t *testing.T) {
		svc, repo, blacklist := newTestService(t)
		repo.EXPECT().CleanupExpired(gomock.Any()).Return(int64(2), nil)
		blacklist.EXPECT().CleanupExpired(gomock.Any()).Return(int64(1), nil)

		assert.NoError(t, svc.CleanupExpired(context.Background()))
	})

	t.Run("blacklist failure still cleans sessions", func(t *testing.T) {
		svc, repo, blacklist := newTestService(t)
		boom := errors.New("boom")
		repo.EXPECT().CleanupExpired(gomock.Any()).Return(int64(0), nil)
		blacklist.EXPECT().CleanupExpired(gomock.Any()).Return(int64(0), boom)

		assert.ErrorIs(t, svc.CleanupExpired(context.Background()), boom)
	})
}
