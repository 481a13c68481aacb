package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd(open openFunc) *cobra.Command {
	var (
		ownerID string
		isbns   []string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create books from Open Library by ISBN",
		Long: `Import looks each ISBN up on Open Library and creates a book owned by
--owner. Imported books start without reviews. The result is printed as JSON.`,
		Example: `  reviewctl import --owner 7d1c... --isbn 9780441013593 --isbn 0-14-143951-3`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b *backend) error {
				if _, err := b.owners.GetByID(ctx, ownerID); err != nil {
					return fmt.Errorf("owner %s: %w", ownerID, err)
				}

				res, err := b.importer.Import(ctx, ownerID, isbns)
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(res); encErr != nil && err == nil {
					err = encErr
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&ownerID, "owner", "", "id of the user who will own the books")
	cmd.Flags().StringSliceVar(&isbns, "isbn", nil, "ISBN-10 or ISBN-13 (repeatable)")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("isbn")
	return cmd
}
