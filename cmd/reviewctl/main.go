// Command reviewctl runs maintenance jobs against the review stores.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bookreviews/internal/book"
	"bookreviews/internal/config"
	"bookreviews/internal/ingest"
	"bookreviews/internal/platform/logger"
	"bookreviews/internal/platform/openlibrary"
	"bookreviews/internal/rating"
	"bookreviews/internal/review"
	"bookreviews/internal/storage"
	"bookreviews/internal/user"

	"github.com/spf13/cobra"
)

// bookLister is the slice of the book store the commands read from.
type bookLister interface {
	ListIDs(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id string) (book.Book, error)
}

type ownerLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type bookImporter interface {
	Import(ctx context.Context, ownerID string, isbns []string) (ingest.Result, error)
}

type backend struct {
	books      bookLister
	owners     ownerLookup
	aggregator *rating.Aggregator
	importer   bookImporter
	close      func()
}

type openFunc func(ctx context.Context) (*backend, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openStores).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func openStores(ctx context.Context) (*backend, error) {
	cfg, err := config.LoadForTools()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	ctx = log.WithContext(ctx)

	st, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open stores: %w", err)
	}
	aggregator := rating.NewAggregator(st.Reviews, st.Books)
	reviewSvc := review.NewService(st.Reviews, st.Books, aggregator)
	bookSvc := book.NewService(st.Books, reviewSvc)
	client := openlibrary.NewClient(openlibrary.Options{
		BaseURL:    cfg.OpenLibraryURL,
		UserAgent:  cfg.OpenLibraryUserAgent,
		RPS:        cfg.OpenLibraryRPS,
		MaxRetries: 3,
	})

	return &backend{
		books:      st.Books,
		owners:     user.NewService(st.Users),
		aggregator: aggregator,
		importer:   ingest.NewService(client, bookSvc),
		close:      st.Close,
	}, nil
}

func newRootCmd(open openFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "reviewctl",
		Short: "reviewctl - maintenance commands for the book review service",
		Long: `reviewctl talks to the same stores as the API, configured through the
usual environment (STORE_DRIVER, DATABASE_URL, MONGO_URI, ...).

Use "reviewctl [command] --help" to see the flags of each command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRecomputeCmd(open), newStatsCmd(open), newImportCmd(open))
	return root
}

// withBackend opens the stores for the duration of run. zerolog.Ctx falls
// back to the process logger installed by logger.New.
func withBackend(cmd *cobra.Command, open openFunc, run func(ctx context.Context, b *backend) error) error {
	b, err := open(cmd.Context())
	if err != nil {
		return err
	}
	if b.close != nil {
		defer b.close()
	}

	return run(cmd.Context(), b)
}
