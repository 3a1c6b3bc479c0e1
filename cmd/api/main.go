package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookstore/internal/api"
	"bookstore/internal/book"
	"bookstore/internal/config"
	"bookstore/internal/platform/cache"
	"bookstore/internal/platform/logger"
	"bookstore/internal/platform/postgres"
	"bookstore/internal/token"
	"bookstore/internal/user"
)

// @title Bookstore API
// @version 1.0
// @description Book catalogue with bearer-token authentication.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("cannot load config", "error", err)
		os.Exit(1)
	}
	log := logger.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the listener fails, then releases
// the storage and background workers before returning.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	storage, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}
	defer closeStorage()

	var bookCache book.Cache
	if cfg.BookCacheTTL > 0 {
		ttl := cache.NewTTL[int64, book.Book](cfg.BookCacheTTL, cache.SystemClock())
		go ttl.RunJanitor(cfg.BookCacheTTL, ctx.Done())
		bookCache = ttl
	}

	app := api.New(cfg, storage, bookCache, log)
	defer app.Close()

	srv := api.NewServer(cfg.Addr, app.Router)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.Addr, "driver", cfg.StorageDriver)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	}
}

func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (api.Storage, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		return api.Storage{
			Books:  book.NewMemoryRepo(),
			Users:  user.NewMemoryRepo(),
			Tokens: token.NewMemoryRepo(),
		}, func() {}, nil
	}

	pool, err := postgres.Open(ctx, cfg.DatabaseDSN, 2*time.Second)
	if err != nil {
		return api.Storage{}, nil, err
	}
	log.Info("database connection OK", "dsn", postgres.RedactDSN(cfg.DatabaseDSN))

	return api.Storage{
		Books:  book.NewPostgresRepo(pool, cfg.DBTimeout),
		Users:  user.NewPostgresRepo(pool, cfg.DBTimeout),
		Tokens: token.NewPostgresRepo(pool, cfg.DBTimeout),
		Ping:   pool.Ping,
	}, pool.Close, nil
}
