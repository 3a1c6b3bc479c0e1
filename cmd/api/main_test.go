package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"bookstore/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(addr string) *config.Config {
	return &config.Config{
		Addr:           addr,
		StorageDriver:  config.DriverMemory,
		DBTimeout:      time.Second,
		TokenSecret:    "api-main-test-secret-0123456789abcdef",
		BookCacheTTL:   time.Minute,
		BooksPageSize:  2,
		LoginRateLimit: 10,
		LoginRateWin:   time.Minute,
		MaxBodyBytes:   1 << 20,
		LogLevel:       "error",
		BcryptCost:     4,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, testConfig("127.0.0.1:0"), discardLogger()) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRun_ReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = run(context.Background(), testConfig(ln.Addr().String()), discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serve:")
}

func TestOpenStorage_Memory(t *testing.T) {
	storage, closeStorage, err := openStorage(context.Background(), testConfig(":0"), discardLogger())
	require.NoError(t, err)
	defer closeStorage()

	assert.NotNil(t, storage.Books)
	assert.NotNil(t, storage.Users)
	assert.NotNil(t, storage.Tokens)
	assert.Nil(t, storage.Ping)
}
