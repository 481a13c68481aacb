package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatsCmd(open openFunc) *cobra.Command {
	var bookID string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the stored rating aggregate of a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b *backend) error {
				bk, err := b.books.GetByID(ctx, bookID)
				if err != nil {
					return fmt.Errorf("get book %s: %w", bookID, err)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "id\t%s\n", bk.ID)
				fmt.Fprintf(w, "title\t%s\n", bk.Title)
				fmt.Fprintf(w, "average_rating\t%.1f\n", bk.AverageRating)
				fmt.Fprintf(w, "total_reviews\t%d\n", bk.TotalReviews)
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&bookID, "book", "", "book id")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}
