package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/platform/logger"
	"bookstore/internal/platform/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

const pingTimeout = 5 * time.Second

type cli struct {
	in     io.Reader
	out    io.Writer
	dsn    string
	logger *slog.Logger
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	c := &cli{in: in, out: out}

	root := &cobra.Command{
		Use:          "bookctl",
		Short:        "Administer the bookstore database",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnvFiles()
			c.logger = logger.New(cmd.ErrOrStderr(), "info")
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.dsn, "dsn", "", "database DSN (defaults to DB_DSN)")

	root.AddCommand(c.migrateCmd(), c.seedCmd(), c.userCmd())
	return root
}

// loadConfig reads the service configuration, letting --dsn win over DB_DSN.
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.dsn != "" {
		cfg.DatabaseDSN = c.dsn
	}
	return cfg, nil
}

func (c *cli) openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := postgres.Open(ctx, dsn, pingTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return pool, nil
}
