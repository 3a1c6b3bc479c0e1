package main

import (
	"context"
	"fmt"
	"io"

	"bookstore/internal/book"
	"bookstore/internal/platform/validation"

	"github.com/spf13/cobra"
)

var sampleBooks = []book.CreateInput{
	{Title: "Titre 1", Author: "Autheur 1", Summary: "Sommaire numéro 1", ISBN: "9781234567890"},
	{Title: "Titre 2", Author: "Autheur 2", Summary: "Sommaire numéro 2", ISBN: "9781234567891"},
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample books",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			pool, err := c.openPool(cmd.Context(), cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := book.NewService(book.NewPostgresRepo(pool, cfg.DBTimeout), nil, cfg.BooksPageSize, c.logger)
			return seedBooks(cmd.Context(), svc, c.out)
		},
	}
}

// seedBooks creates every sample book, skipping isbns that already exist.
func seedBooks(ctx context.Context, svc *book.Service, out io.Writer) error {
	var created int
	for _, in := range sampleBooks {
		b, err := svc.Create(ctx, in)
		if verr, ok := validation.As(err); ok && verr.Has("isbn") {
			fmt.Fprintf(out, "skipped %s: already present\n", in.ISBN)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %s: %w", in.ISBN, err)
		}
		created++
		fmt.Fprintf(out, "created book %d (%s)\n", b.ID, b.ISBN)
	}
	fmt.Fprintf(out, "Seeded %d of %d books\n", created, len(sampleBooks))
	return nil
}
