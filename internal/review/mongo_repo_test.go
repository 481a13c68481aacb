package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockMongo(t *testing.T) *mtest.T {
	t.Helper()
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func reviewDoc(r Review) bson.D {
	return bson.D{
		{Key: "_id", Value: r.ID},
		{Key: "book_id", Value: r.BookID},
		{Key: "user_id", Value: r.UserID},
		{Key: "rating", Value: r.Rating},
		{Key: "text", Value: r.Text},
		{Key: "created_at", Value: r.CreatedAt},
		{Key: "updated_at", Value: r.UpdatedAt},
	}
}

func TestMongoRepo_Create(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("success", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		r := sampleReview()
		require.NoError(mt, repo.Create(context.Background(), &r))
	})

	mt.Run("duplicate book and user", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: reviews index: uniq_book_user",
		}))

		r := sampleReview()
		assert.ErrorIs(mt, repo.Create(context.Background(), &r), ErrDuplicate)
	})
}

func TestMongoRepo_GetByID(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("found", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, time.Second)
		want := sampleReview()
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, reviewDoc(want)))

		got, err := repo.GetByID(context.Background(), want.ID)
		require.NoError(mt, err)
		assert.Equal(mt, want, got)
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, time.Second)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), "r-404")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoRepo_UpdateAndDeleteMissing(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("update", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		r := sampleReview()
		assert.ErrorIs(mt, repo.Update(context.Background(), &r), ErrNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, repo.Delete(context.Background(), "r-1"), ErrNotFound)
	})
}

func TestMongoRepo_ListByBookKeyset(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("first page has no cursor filter", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, time.Second)
		r := sampleReview()
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, reviewDoc(r)))

		got, err := repo.ListByBook(context.Background(), "b-1", nil, 2)
		require.NoError(mt, err)
		assert.Equal(mt, []Review{r}, got)

		cmd := mt.GetStartedEvent().Command
		filter := cmd.Lookup("filter").Document()
		assert.Equal(mt, "b-1", filter.Lookup("book_id").StringValue())
		_, err = filter.LookupErr("$or")
		assert.Error(mt, err)
		assert.EqualValues(mt, 2, cmd.Lookup("limit").AsInt64())
	})

	mt.Run("later page starts after the cursor", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, time.Second)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		after := &Cursor{CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), ID: "r-5"}
		got, err := repo.ListByBook(context.Background(), "b-1", after, 2)
		require.NoError(mt, err)
		assert.Empty(mt, got)

		filter := mt.GetStartedEvent().Command.Lookup("filter").Document()
		branches, err := filter.Lookup("$or").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, branches, 2)

		older := branches[0].Document()
		assert.Equal(mt, after.CreatedAt, older.Lookup("created_at", "$lt").Time().UTC())

		tie := branches[1].Document()
		assert.Equal(mt, after.CreatedAt, tie.Lookup("created_at").Time().UTC())
		assert.Equal(mt, after.ID, tie.Lookup("_id", "$lt").StringValue())
	})
}

func TestMongoRepo_DeleteByBook(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("removes every review of the book", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}))

		n, err := repo.DeleteByBook(context.Background(), "b-1")
		require.NoError(mt, err)
		assert.EqualValues(mt, 3, n)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, "delete", cmd.Index(0).Key())
		deletes, err := cmd.Lookup("deletes").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, deletes, 1)
		stmt := deletes[0].Document()
		assert.Equal(mt, "b-1", stmt.Lookup("q", "book_id").StringValue())
		assert.EqualValues(mt, 0, stmt.Lookup("limit").AsInt64())
	})
}

func TestMongoRepo_ListRatingsByBook(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("projects ratings", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll, time.Second)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "r-1"}, {Key: "rating", Value: 5}},
			bson.D{{Key: "_id", Value: "r-2"}, {Key: "rating", Value: 2}},
		))

		ratings, err := repo.ListRatingsByBook(context.Background(), "b-1")
		require.NoError(mt, err)
		assert.Equal(mt, []int{5, 2}, ratings)
	})
}
