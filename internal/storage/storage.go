// Package storage opens the configured backends and exposes them as the
// repository ports the services consume.
package storage

import (
	"context"
	"fmt"

	"bookreviews/internal/book"
	"bookreviews/internal/config"
	"bookreviews/internal/platform/health"
	"bookreviews/internal/platform/mongodb"
	"bookreviews/internal/platform/postgres"
	"bookreviews/internal/platform/redisx"
	"bookreviews/internal/rating"
	"bookreviews/internal/review"
	"bookreviews/internal/session"
	"bookreviews/internal/user"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

// BookStore is a book repository that also owns the rating aggregate columns.
type BookStore interface {
	book.Repository
	rating.AggregateWriter
}

type Stores struct {
	Books     BookStore
	Reviews   review.Repository
	Users     user.Repository
	Sessions  session.Repository
	Blacklist session.BlacklistRepository

	// Checks feed the readiness probe; Collectors are registered by the API.
	Checks     []health.Check
	Collectors []prometheus.Collector

	closers []func()
}

// Open connects to STORE_DRIVER and SESSION_STORE. On error everything that
// was already opened is closed.
func Open(ctx context.Context, cfg config.Config) (*Stores, error) {
	s := &Stores{}
	if err := s.open(ctx, cfg); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Stores) open(ctx context.Context, cfg config.Config) error {
	log := zerolog.Ctx(ctx)

	var pool *pgxpool.Pool
	if cfg.StoreDriver == config.DriverPostgres || cfg.SessionStore == config.DriverPostgres {
		p, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		pool = p
		s.closers = append(s.closers, pool.Close)
		s.Checks = append(s.Checks, health.Check{Name: "postgres", Ping: pool.Ping})
		s.Collectors = append(s.Collectors, postgres.NewPoolStatsCollector(pool))
		log.Info().Str("dsn", postgres.RedactDSN(cfg.DatabaseDSN)).Msg("postgres connected")
	}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		s.Books = book.NewPostgresRepo(pool, cfg.DBTimeout)
		s.Reviews = review.NewPostgresRepo(pool, cfg.DBTimeout)
		s.Users = user.NewPostgresRepo(pool, cfg.DBTimeout)
	case config.DriverMongo:
		if err := s.openMongo(ctx, cfg); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	switch cfg.SessionStore {
	case config.DriverPostgres:
		s.Sessions = session.NewPostgresRepo(pool, cfg.DBTimeout)
		s.Blacklist = session.NewBlacklistPostgresRepo(pool, cfg.DBTimeout)
	case config.DriverRedis:
		client, err := redisx.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.Checks = append(s.Checks, health.Check{Name: "redis", Ping: pingRedis(client)})
		s.Sessions = session.NewRedisRepo(client)
		s.Blacklist = session.NewRedisBlacklist(client)
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
	default:
		return fmt.Errorf("unsupported session store %q", cfg.SessionStore)
	}
	return nil
}

func (s *Stores) openMongo(ctx context.Context, cfg config.Config) error {
	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, func() { _ = client.Disconnect(context.Background()) })
	s.Checks = append(s.Checks, health.Check{Name: "mongo", Ping: pingMongo(client)})

	db := client.Database(cfg.MongoDatabase)
	books := book.NewMongoRepo(db.Collection(mongodb.BooksCollection), cfg.DBTimeout)
	reviews := review.NewMongoRepo(db.Collection(mongodb.ReviewsCollection), cfg.DBTimeout)
	users := user.NewMongoRepo(db.Collection(mongodb.UsersCollection), cfg.DBTimeout)

	for name, ensure := range map[string]func(context.Context) error{
		mongodb.BooksCollection:   books.EnsureIndexes,
		mongodb.ReviewsCollection: reviews.EnsureIndexes,
		mongodb.UsersCollection:   users.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}

	s.Books, s.Reviews, s.Users = books, reviews, users
	zerolog.Ctx(ctx).Info().Str("database", cfg.MongoDatabase).Msg("mongo connected")
	return nil
}

// Close releases connections in reverse order of opening.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func pingRedis(client *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

func pingMongo(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}
}
