package book

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bookDocument struct {
	ID              string    `bson:"_id"`
	Title           string    `bson:"title"`
	Author          string    `bson:"author"`
	Description     string    `bson:"description"`
	Genre           string    `bson:"genre"`
	PublicationYear int       `bson:"publication_year"`
	OwnerID         string    `bson:"owner_id"`
	AverageRating   float64   `bson:"average_rating"`
	TotalReviews    int       `bson:"total_reviews"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func (d bookDocument) toBook() Book {
	return Book{
		ID:              d.ID,
		Title:           d.Title,
		Author:          d.Author,
		Description:     d.Description,
		Genre:           d.Genre,
		PublicationYear: d.PublicationYear,
		OwnerID:         d.OwnerID,
		AverageRating:   d.AverageRating,
		TotalReviews:    d.TotalReviews,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// MongoRepo stores books in a MongoDB collection keyed by the string id.
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

// EnsureIndexes creates the secondary indexes used by List.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.coll.Indexes().CreateMany(timeoutCtx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "genre", Value: 1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "average_rating", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create book indexes: %w", err)
	}
	return nil
}

func (r *MongoRepo) Create(ctx context.Context, b *Book) error {
	doc := bookDocument{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Description:     b.Description,
		Genre:           b.Genre,
		PublicationYear: b.PublicationYear,
		OwnerID:         b.OwnerID,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.coll.InsertOne(timeoutCtx, doc); err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc bookDocument
	if err := r.coll.FindOne(timeoutCtx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("find book: %w", err)
	}
	return doc.toBook(), nil
}

func listFilter(q Query) bson.M {
	filter := bson.M{}
	if q.Genre != "" {
		filter["genre"] = q.Genre
	}
	if q.Author != "" {
		filter["author"] = bson.M{"$regex": regexp.QuoteMeta(q.Author), "$options": "i"}
	}
	if q.OwnerID != "" {
		filter["owner_id"] = q.OwnerID
	}
	if q.Q != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(q.Q), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"author": pattern},
			bson.M{"description": pattern},
		}
	}
	if q.MinRating != nil {
		filter["average_rating"] = bson.M{"$gte": *q.MinRating}
	}
	return filter
}

func listSort(q Query) bson.D {
	field := "title"
	switch q.Sort {
	case "created_at":
		field = "created_at"
	case "rating":
		field = "average_rating"
	case "year":
		field = "publication_year"
	}
	dir := 1
	if q.Desc {
		dir = -1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}
}

func (r *MongoRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	filter := listFilter(q)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	total, err := r.coll.CountDocuments(timeoutCtx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	opts := options.Find().
		SetSort(listSort(q)).
		SetSkip(int64(q.Offset)).
		SetLimit(int64(q.Limit))
	cur, err := r.coll.Find(timeoutCtx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	var docs []bookDocument
	if err := cur.All(timeoutCtx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode books: %w", err)
	}

	out := make([]Book, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toBook())
	}
	return out, int(total), nil
}

// Update writes the client-editable fields only.
func (r *MongoRepo) Update(ctx context.Context, b *Book) error {
	update := bson.M{"$set": bson.M{
		"title":            b.Title,
		"author":           b.Author,
		"description":      b.Description,
		"genre":            b.Genre,
		"publication_year": b.PublicationYear,
		"updated_at":       b.UpdatedAt,
	}}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.UpdateByID(timeoutCtx, b.ID, update)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
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
		return fmt.Errorf("delete book: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) ListIDs(ctx context.Context) ([]string, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.coll.Find(timeoutCtx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list book ids: %w", err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(timeoutCtx, &docs); err != nil {
		return nil, fmt.Errorf("decode book ids: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// SetRatingAggregate overwrites the derived rating fields of a book and
// nothing else. It returns ErrNotFound when the book no longer exists.
func (r *MongoRepo) SetRatingAggregate(ctx context.Context, bookID string, average float64, total int) error {
	update := bson.M{"$set": bson.M{"average_rating": average, "total_reviews": total}}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.UpdateByID(timeoutCtx, bookID, update)
	if err != nil {
		return fmt.Errorf("set rating aggregate: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
