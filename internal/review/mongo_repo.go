package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type reviewDocument struct {
	ID        string    `bson:"_id"`
	BookID    string    `bson:"book_id"`
	UserID    string    `bson:"user_id"`
	Rating    int       `bson:"rating"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d reviewDocument) toReview() Review {
	return Review{
		ID:        d.ID,
		BookID:    d.BookID,
		UserID:    d.UserID,
		Rating:    d.Rating,
		Text:      d.Text,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// newestFirst orders reviews by (created_at, _id) descending.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

type MongoRepo struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoRepo(coll *mongo.Collection, timeout time.Duration) *MongoRepo {
	return &MongoRepo{coll: coll, timeout: timeout}
}

func (r *MongoRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// EnsureIndexes creates the unique (book_id, user_id) index that backs the
// one-review-per-user rule, plus the listing indexes.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.coll.Indexes().CreateMany(timeoutCtx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "book_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_book_user"),
		},
		{Keys: bson.D{{Key: "book_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create review indexes: %w", err)
	}
	return nil
}

func (r *MongoRepo) Create(ctx context.Context, rv *Review) error {
	doc := reviewDocument{
		ID:        rv.ID,
		BookID:    rv.BookID,
		UserID:    rv.UserID,
		Rating:    rv.Rating,
		Text:      rv.Text,
		CreatedAt: rv.CreatedAt,
		UpdatedAt: rv.UpdatedAt,
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.coll.InsertOne(timeoutCtx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *MongoRepo) findOne(ctx context.Context, filter bson.M) (Review, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc reviewDocument
	if err := r.coll.FindOne(timeoutCtx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Review{}, ErrNotFound
		}
		return Review{}, fmt.Errorf("find review: %w", err)
	}
	return doc.toReview(), nil
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (Review, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepo) GetByBookAndUser(ctx context.Context, bookID, userID string) (Review, error) {
	return r.findOne(ctx, bson.M{"book_id": bookID, "user_id": userID})
}

func (r *MongoRepo) Update(ctx context.Context, rv *Review) error {
	update := bson.M{"$set": bson.M{
		"rating":     rv.Rating,
		"text":       rv.Text,
		"updated_at": rv.UpdatedAt,
	}}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.UpdateByID(timeoutCtx, rv.ID, update)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.DeleteOne(timeoutCtx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Review, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	var docs []reviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	out := make([]Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toReview())
	}
	return out, nil
}

func (r *MongoRepo) ListByBook(ctx context.Context, bookID string, after *Cursor, limit int) ([]Review, error) {
	filter := bson.M{"book_id": bookID}
	if after != nil {
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$lt": after.CreatedAt}},
			bson.M{"created_at": after.CreatedAt, "_id": bson.M{"$lt": after.ID}},
		}
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.find(timeoutCtx, filter, options.Find().SetSort(newestFirst).SetLimit(int64(limit)))
}

func (r *MongoRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Review, int, error) {
	filter := bson.M{"user_id": userID}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	total, err := r.coll.CountDocuments(timeoutCtx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews by user: %w", err)
	}
	out, err := r.find(timeoutCtx, filter, options.Find().
		SetSort(newestFirst).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, err
	}
	return out, int(total), nil
}

func (r *MongoRepo) listRatings(ctx context.Context, filter bson.M) ([]int, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	cur, err := r.coll.Find(timeoutCtx, filter, options.Find().SetProjection(bson.M{"rating": 1}))
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	var docs []struct {
		Rating int `bson:"rating"`
	}
	if err := cur.All(timeoutCtx, &docs); err != nil {
		return nil, fmt.Errorf("decode ratings: %w", err)
	}
	ratings := make([]int, 0, len(docs))
	for _, d := range docs {
		ratings = append(ratings, d.Rating)
	}
	return ratings, nil
}

func (r *MongoRepo) ListRatingsByBook(ctx context.Context, bookID string) ([]int, error) {
	return r.listRatings(ctx, bson.M{"book_id": bookID})
}

func (r *MongoRepo) ListRatingsByUser(ctx context.Context, userID string) ([]int, error) {
	return r.listRatings(ctx, bson.M{"user_id": userID})
}

func (r *MongoRepo) DeleteByBook(ctx context.Context, bookID string) (int64, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.DeleteMany(timeoutCtx, bson.M{"book_id": bookID})
	if err != nil {
		return 0, fmt.Errorf("delete reviews by book: %w", err)
	}
	return res.DeletedCount, nil
}
