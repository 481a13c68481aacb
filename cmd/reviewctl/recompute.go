package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRecomputeCmd(open openFunc) *cobra.Command {
	var (
		bookIDs []string
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild stored rating aggregates from reviews",
		Long: `Recompute reads every rating of the selected books and overwrites their
average_rating and total_reviews. Use it after restoring a backup or after
editing reviews directly in the database.`,
		Example: `  reviewctl recompute --book 5f0c...
  reviewctl recompute --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b *backend) error {
				ids := bookIDs
				if all {
					var err error
					if ids, err = b.books.ListIDs(ctx); err != nil {
						return fmt.Errorf("list books: %w", err)
					}
				}

				report, err := b.aggregator.RecomputeMany(ctx, ids)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "updated: %d\n", report.Updated)
				if len(report.Missing) > 0 {
					fmt.Fprintf(out, "missing: %s\n", strings.Join(report.Missing, ", "))
				}
				if err != nil {
					return fmt.Errorf("recompute: %w", err)
				}

				zerolog.Ctx(ctx).Info().
					Int("updated", report.Updated).
					Int("missing", len(report.Missing)).
					Msg("rating aggregates recomputed")
				if !all && len(report.Missing) > 0 {
					return errors.New("some books do not exist")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&bookIDs, "book", nil, "book id to recompute (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "recompute every book")
	cmd.MarkFlagsMutuallyExclusive("book", "all")
	cmd.MarkFlagsOneRequired("book", "all")
	return cmd
}
