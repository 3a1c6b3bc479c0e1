package api

import (
	"net/http"

	"bookstore/internal/auth"
	"bookstore/internal/book"
	"bookstore/internal/user"
)

// Route binds one method and pattern to a handler. Auth routes require a
// valid bearer token; Throttle routes share the login rate limiter.
type Route struct {
	Method   string
	Pattern  string
	Handler  http.HandlerFunc
	Auth     bool
	Throttle bool
}

// Handlers groups the HTTP handlers the route table dispatches to.
type Handlers struct {
	Books *book.HTTPHandler
	Auth  *auth.HTTPHandler
	Users *user.HTTPHandler
}

// Routes is the dispatch table mounted under every API prefix.
func Routes(h Handlers) []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/books", Handler: h.Books.List},
		{Method: http.MethodGet, Pattern: "/books/{id}", Handler: h.Books.Get},
		{Method: http.MethodPost, Pattern: "/books", Handler: h.Books.Create, Auth: true},
		{Method: http.MethodPut, Pattern: "/books/{id}", Handler: h.Books.Update, Auth: true},
		{Method: http.MethodPatch, Pattern: "/books/{id}", Handler: h.Books.Update, Auth: true},
		{Method: http.MethodDelete, Pattern: "/books/{id}", Handler: h.Books.Delete, Auth: true},

		{Method: http.MethodPost, Pattern: "/register", Handler: h.Auth.Register},
		{Method: http.MethodPost, Pattern: "/login", Handler: h.Auth.Login, Throttle: true},
		{Method: http.MethodPost, Pattern: "/logout", Handler: h.Auth.Logout, Auth: true},
		{Method: http.MethodGet, Pattern: "/user", Handler: h.Users.GetCurrentUser, Auth: true},

		{Method: http.MethodGet, Pattern: "/ping", Handler: Ping},
		{Method: http.MethodGet, Pattern: "/docs/openapi.json", Handler: OpenAPI},
	}
}

// Prefixes under which the route table is mounted.
var Prefixes = []string{"/api/v1", "/api"}
