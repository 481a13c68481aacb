package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"bookreviews/internal/book"
	"bookreviews/internal/config"
	"bookreviews/internal/platform/logger"
	"bookreviews/internal/rating"
	"bookreviews/internal/review"
	"bookreviews/internal/storage"
	"bookreviews/internal/user"

	"github.com/rs/zerolog"
)

const seedPassword = "Seed!Pass1"

var (
	titleWords  = []string{"Silent", "River", "Empire", "Glass", "Winter", "Garden", "Machine", "Shadow", "Harbor", "Atlas"}
	authors     = []string{"Ada Lane", "Marcus Hale", "Ines Duarte", "Kenji Ito", "Ruth Okafor", "Tomas Berg"}
	reviewTexts = map[int][]string{
		1: {"Could not finish it.", "Not for me at all."},
		2: {"A few good ideas, poorly executed.", "Dragged in the middle."},
		3: {"Solid but forgettable.", "Decent weekend read."},
		4: {"Really enjoyed the characters.", "Well paced and thoughtful."},
		5: {"An instant favourite.", "Could not put it down."},
	}
)

type options struct {
	users, books, maxReviews int
	seed                     int64
}

type seeder struct {
	users   *user.Service
	books   *book.Service
	reviews *review.Service
	rnd     *rand.Rand
	log     zerolog.Logger
}

func main() {
	var opts options
	flag.IntVar(&opts.users, "users", 10, "number of demo users")
	flag.IntVar(&opts.books, "books", 25, "number of demo books")
	flag.IntVar(&opts.maxReviews, "max-reviews", 8, "maximum reviews per book")
	flag.Int64Var(&opts.seed, "seed", 42, "random seed")
	flag.Parse()

	cfg, err := config.LoadForTools()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Env, cfg.LogLevel)

	if err := seed(cfg, log, opts); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}

// seed returns instead of exiting so the stores are closed on every path.
func seed(cfg config.Config, log zerolog.Logger, opts options) error {
	ctx := log.WithContext(context.Background())

	stores, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	return newSeeder(stores, opts.seed, log).run(ctx, opts)
}

// newSeeder goes through the services so aggregates are produced by the
// same rating.Aggregator the API uses.
func newSeeder(st *storage.Stores, seed int64, log zerolog.Logger) *seeder {
	aggregator := rating.NewAggregator(st.Reviews, st.Books)
	reviewSvc := review.NewService(st.Reviews, st.Books, aggregator)
	return &seeder{
		users:   user.NewService(st.Users),
		books:   book.NewService(st.Books, reviewSvc),
		reviews: reviewSvc,
		rnd:     rand.New(rand.NewSource(seed)),
		log:     log,
	}
}

func (s *seeder) run(ctx context.Context, opts options) error {
	userIDs, err := s.seedUsers(ctx, opts.users)
	if err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return errors.New("no users to own books")
	}

	var created int
	for i := 0; i < opts.books; i++ {
		owner := userIDs[s.rnd.Intn(len(userIDs))]
		b, err := s.books.Create(ctx, owner, book.CreateInput{
			Title:           fmt.Sprintf("The %s %s", pick(s.rnd, titleWords), pick(s.rnd, titleWords)),
			Author:          pick(s.rnd, authors),
			Description:     "Seeded demo book.",
			Genre:           pick(s.rnd, book.Genres),
			PublicationYear: 1950 + s.rnd.Intn(75),
		})
		if err != nil {
			return fmt.Errorf("create book: %w", err)
		}

		n, err := s.seedReviews(ctx, b.ID, userIDs, s.rnd.Intn(opts.maxReviews+1))
		if err != nil {
			return err
		}
		created += n
	}

	s.log.Info().Int("users", len(userIDs)).Int("books", opts.books).Int("reviews", created).Msg("seed complete")
	return nil
}

func (s *seeder) seedUsers(ctx context.Context, n int) ([]string, error) {
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		email := fmt.Sprintf("reader%d@example.com", i)
		u, err := s.users.Register(ctx, user.RegisterInput{
			Email:    email,
			Username: fmt.Sprintf("reader%d", i),
			Password: seedPassword,
		})
		if errors.Is(err, user.ErrAlreadyExists) {
			u, err = s.users.GetByEmail(ctx, email)
		}
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", email, err)
		}
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// seedReviews writes up to n reviews from distinct users.
func (s *seeder) seedReviews(ctx context.Context, bookID string, userIDs []string, n int) (int, error) {
	var created int
	for _, idx := range s.rnd.Perm(len(userIDs)) {
		if created == n {
			break
		}
		stars := 1 + s.rnd.Intn(5)
		_, err := s.reviews.Create(ctx, review.CreateInput{
			BookID: bookID,
			UserID: userIDs[idx],
			Rating: stars,
			Text:   pick(s.rnd, reviewTexts[stars]),
		})
		if errors.Is(err, review.ErrDuplicate) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed review: %w", err)
		}
		created++
	}
	return created, nil
}

func pick[T any](rnd *rand.Rand, items []T) T {
	return items[rnd.Intn(len(items))]
}
