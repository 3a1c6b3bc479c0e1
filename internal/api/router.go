package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bookstore/internal/auth"
	"bookstore/internal/book"
	"bookstore/internal/config"
	"bookstore/internal/httpx"
	"bookstore/internal/platform/crypto"
	"bookstore/internal/token"
	"bookstore/internal/user"

	"github.com/go-chi/chi/v5"
)

// Storage is the set of repositories the API runs on. Ping backs /readyz and
// may be nil for storage that is always ready.
type Storage struct {
	Books  book.Repository
	Users  user.Repository
	Tokens token.Repository
	Ping   func(context.Context) error
}

// App is the assembled HTTP application.
type App struct {
	Router  http.Handler
	Books   *book.Service
	Auth    *auth.Service
	limiter *httpx.RateLimitMiddleware
}

// New wires services and handlers over storage and builds the router.
// bookCache may be nil to disable caching.
func New(cfg *config.Config, storage Storage, bookCache book.Cache, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	bookService := book.NewService(storage.Books, bookCache, cfg.BooksPageSize, logger)
	authService := auth.NewService(
		storage.Users,
		storage.Tokens,
		crypto.NewBcryptHasher(cfg.BcryptCost),
		crypto.NewJWTIssuer(cfg.TokenSecret),
		logger,
	)
	userService := user.NewService(storage.Users)

	handlers := Handlers{
		Books: book.NewHTTPHandler(bookService),
		Auth:  auth.NewHTTPHandler(authService),
		Users: user.NewHTTPHandler(userService),
	}

	limiter := httpx.NewRateLimitMiddleware(cfg.LoginRateLimit, cfg.LoginRateWin, logger)
	trustedProxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		logger.Warn("ignoring trusted proxies", "error", err)
	}

	r := chi.NewRouter()
	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.TrustedRealIPMiddleware(trustedProxies))
	r.Use(httpx.AccessLogMiddleware(logger))
	r.Use(httpx.RecoveryMiddleware(logger))
	r.Use(httpx.SecurityHeadersMiddleware(cfg.EnableHSTS))
	r.Use(httpx.CORSMiddleware(cfg.AllowedOrigins()))
	r.Use(httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONNotFound(w, r, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(storage.Ping))

	authMiddleware := httpx.AuthMiddleware(authService)
	routes := Routes(handlers)
	for _, prefix := range Prefixes {
		r.Route(prefix, func(sub chi.Router) {
			mount(sub, routes, authMiddleware, limiter.Middleware)
		})
	}

	return &App{
		Router:  r,
		Books:   bookService,
		Auth:    authService,
		limiter: limiter,
	}
}

func mount(r chi.Router, routes []Route, authMiddleware, throttle func(http.Handler) http.Handler) {
	for _, route := range routes {
		var h http.Handler = route.Handler
		if route.Auth {
			h = authMiddleware(h)
		}
		if route.Throttle {
			h = throttle(h)
		}
		r.Method(route.Method, route.Pattern, h)
	}
}

// Close stops background work owned by the app.
func (a *App) Close() {
	a.limiter.Close()
}

// NewServer returns an http.Server with the timeouts used in production.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
