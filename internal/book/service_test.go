package book

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

func newTestService(t *testing.T) (*Service, *MockRepository, *MockReviewPurger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := NewMockRepository(ctrl)
	purger := NewMockReviewPurger(ctrl)
	svc := NewService(repo, purger)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo, purger
}

func strPtr(s string) *string { return &s }

func TestService_Create(t *testing.T) {
	t.Run("normalizes and stores without aggregate", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b *Book) error {
			assert.Equal(t, "Dune", b.Title)
			assert.Equal(t, "science-fiction", b.Genre)
			assert.Equal(t, "owner-1", b.OwnerID)
			assert.Zero(t, b.AverageRating)
			assert.Zero(t, b.TotalReviews)
			return nil
		})

		b, err := svc.Create(context.Background(), "owner-1", CreateInput{
			Title:  "  Dune ",
			Author: "Frank Herbert",
			Genre:  "Science-Fiction",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, b.ID)
		assert.Equal(t, svc.now().UTC(), b.CreatedAt)
	})

	t.Run("invalid genre", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Create(context.Background(), "owner-1", CreateInput{
			Title:  "Dune",
			Author: "Frank Herbert",
			Genre:  "cookbook",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrValidation)

		var appErr *apperror.Error
		require.True(t, errors.As(err, &appErr))
		require.Len(t, appErr.Details, 1)
		assert.Equal(t, "genre", appErr.Details[0].Field)
	})

	t.Run("missing title and author", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Create(context.Background(), "owner-1", CreateInput{Genre: "fiction"})

		var appErr *apperror.Error
		require.True(t, errors.As(err, &appErr))
		assert.Len(t, appErr.Details, 2)
	})
}

func TestService_List_ClampsPage(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.EXPECT().List(gomock.Any(), Query{Limit: defaultPageSize, Offset: 0}).Return([]Book{}, 0, nil)

	_, _, err := svc.List(context.Background(), Query{Limit: 500, Offset: -3})
	require.NoError(t, err)
}

func TestService_Update(t *testing.T) {
	existing := Book{ID: "b1", Title: "Old", Author: "A", Genre: "fiction", OwnerID: "owner-1", AverageRating: 4.5, TotalReviews: 2}

	t.Run("owner updates title", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.EXPECT().GetByID(gomock.Any(), "b1").Return(existing, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b *Book) error {
			assert.Equal(t, "New", b.Title)
			return nil
		})

		b, err := svc.Update(context.Background(), "b1", "owner-1", UpdateInput{Title: strPtr("New")})
		require.NoError(t, err)
		assert.Equal(t, "New", b.Title)
		assert.Equal(t, 4.5, b.AverageRating)
		assert.Equal(t, 2, b.TotalReviews)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.EXPECT().GetByID(gomock.Any(), "b1").Return(existing, nil)

		_, err := svc.Update(context.Background(), "b1", "intruder", UpdateInput{Title: strPtr("New")})
		assert.ErrorIs(t, err, ErrForbidden)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("empty patch", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Update(context.Background(), "b1", "owner-1", UpdateInput{})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("missing book", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.EXPECT().GetByID(gomock.Any(), "nope").Return(Book{}, ErrNotFound)

		_, err := svc.Update(context.Background(), "nope", "owner-1", UpdateInput{Title: strPtr("New")})
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	existing := Book{ID: "b1", OwnerID: "owner-1"}

	t.Run("purges reviews before the book", func(t *testing.T) {
		svc, repo, purger := newTestService(t)
		gomock.InOrder(
			repo.EXPECT().GetByID(gomock.Any(), "b1").Return(existing, nil),
			purger.EXPECT().DeleteByBook(gomock.Any(), "b1").Return(int64(3), nil),
			repo.EXPECT().Delete(gomock.Any(), "b1").Return(nil),
		)

		require.NoError(t, svc.Delete(context.Background(), "b1", "owner-1"))
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		repo.EXPECT().GetByID(gomock.Any(), "b1").Return(existing, nil)

		assert.ErrorIs(t, svc.Delete(context.Background(), "b1", "intruder"), ErrForbidden)
	})

	t.Run("purge failure keeps the book", func(t *testing.T) {
		svc, repo, purger := newTestService(t)
		repo.EXPECT().GetByID(gomock.Any(), "b1").Return(existing, nil)
		purger.EXPECT().DeleteByBook(gomock.Any(), "b1").Return(int64(0), context.DeadlineExceeded)

		err := svc.Delete(context.Background(), "b1", "owner-1")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
