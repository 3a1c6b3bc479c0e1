package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"bookstore/internal/auth"
	"bookstore/internal/book"
	"bookstore/internal/config"
	"bookstore/internal/platform/cache"
	"bookstore/internal/testutil"
	"bookstore/internal/token"
	"bookstore/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Addr:           ":0",
		StorageDriver:  config.DriverMemory,
		DBTimeout:      time.Second,
		TokenSecret:    "0123456789abcdef0123456789abcdef",
		BookCacheTTL:   time.Hour,
		BooksPageSize:  2,
		LoginRateLimit: 10,
		LoginRateWin:   time.Minute,
		MaxBodyBytes:   1 << 20,
		LogLevel:       "error",
		BcryptCost:     4,
	}
}

type testApp struct {
	*App
	books *book.MemoryRepo
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	books := book.NewMemoryRepo()
	app := New(testConfig(), Storage{
		Books:  books,
		Users:  user.NewMemoryRepo(),
		Tokens: token.NewMemoryRepo(),
	}, cache.NewTTL[int64, book.Book](time.Hour, cache.SystemClock()), nil)
	t.Cleanup(app.Close)
	return testApp{App: app, books: books}
}

func (a testApp) do(r *http.Request) testutil.RecordResponse {
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, r)
	return testutil.RecordHTTPResponse(w)
}

func (a testApp) register(t *testing.T, name, email string) string {
	t.Helper()
	resp := a.do(testutil.NewRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"name": name, "email": email, "password": "motdepasse123",
	}))
	require.Equal(t, http.StatusCreated, resp.Code)
	tok, _ := resp.Data()["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

var sampleBook = map[string]string{
	"title":   "Titre 1",
	"author":  "Autheur 1",
	"summary": "Sommaire numéro 1",
	"isbn":    "9781234567890",
}

func TestRouter_RegisterLoginScenario(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(testutil.NewRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"name": "Thomas", "email": "t@example.com", "password": "motdepasse123",
	}))
	require.Equal(t, http.StatusCreated, resp.Code)
	u, _ := resp.Data()["user"].(map[string]any)
	assert.Equal(t, "t@example.com", u["email"])
	registerToken, _ := resp.Data()["token"].(string)
	assert.NotEmpty(t, registerToken)

	resp = app.do(testutil.NewRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"email": "t@example.com", "password": "motdepasse123",
	}))
	require.Equal(t, http.StatusOK, resp.Code)
	loginToken, _ := resp.Data()["token"].(string)
	assert.NotEmpty(t, loginToken)
	assert.NotEqual(t, registerToken, loginToken)

	resp = app.do(testutil.NewRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"name": "Thomas", "email": "t@example.com", "password": "motdepasse123",
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = app.do(testutil.NewRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"email": "t@example.com", "password": "wrong-password",
	}))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	errBody, _ := resp.Body["error"].(map[string]any)
	assert.Equal(t, "Invalid credentials", errBody["message"])
}

func TestRouter_LogoutRevokesOnlyPresentedToken(t *testing.T) {
	app := newTestApp(t)
	first := app.register(t, "Thomas", "t@example.com")

	resp := app.do(testutil.NewRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"email": "t@example.com", "password": "motdepasse123",
	}))
	require.Equal(t, http.StatusOK, resp.Code)
	second, _ := resp.Data()["token"].(string)

	resp = app.do(testutil.NewRequestWithAuth(http.MethodPost, "/api/v1/logout", nil, first))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = app.do(testutil.NewRequestWithAuth(http.MethodGet, "/api/v1/user", nil, first))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = app.do(testutil.NewRequestWithAuth(http.MethodGet, "/api/v1/user", nil, second))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "t@example.com", resp.Data()["email"])
	assert.Equal(t, true, resp.Data()["uses_professional_email"])

	resp = app.do(testutil.NewRequest(http.MethodPost, "/api/v1/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRouter_BookLifecycle(t *testing.T) {
	app := newTestApp(t)
	tok := app.register(t, "Thomas", "t@example.com")

	resp := app.do(testutil.NewRequestWithAuth(http.MethodPost, "/api/v1/books", sampleBook, tok))
	require.Equal(t, http.StatusCreated, resp.Code)
	created := resp.Data()
	id := int64(created["id"].(float64))
	path := "/api/v1/books/" + itoa(id)

	resp = app.do(testutil.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, resp.Code)
	for field, want := range sampleBook {
		assert.Equal(t, want, resp.Data()[field], field)
	}

	resp = app.do(testutil.NewRequestWithAuth(http.MethodPatch, path, map[string]string{"title": "New"}, tok))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "New", resp.Data()["title"])
	assert.Equal(t, "Autheur 1", resp.Data()["author"])

	resp = app.do(testutil.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "New", resp.Data()["title"], "cache invalidated on update")

	resp = app.do(testutil.NewRequestWithAuth(http.MethodDelete, path, nil, tok))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = app.do(testutil.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = app.do(testutil.NewRequestWithAuth(http.MethodDelete, path, nil, tok))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRouter_BookWritesRequireAuth(t *testing.T) {
	app := newTestApp(t)
	existing := &book.Book{Title: "Titre 1", Author: "Autheur 1", Summary: "Sommaire numéro 1", ISBN: "9781234567890"}
	require.NoError(t, app.books.Insert(context.Background(), existing))

	requests := []*http.Request{
		testutil.NewRequest(http.MethodPost, "/api/v1/books", sampleBook),
		testutil.NewRequest(http.MethodPut, "/api/v1/books/1", map[string]string{"title": "Changed"}),
		testutil.NewRequest(http.MethodPatch, "/api/v1/books/1", map[string]string{"title": "Changed"}),
		testutil.NewRequest(http.MethodDelete, "/api/v1/books/1", nil),
		testutil.NewRequestWithAuth(http.MethodDelete, "/api/v1/books/1", nil, "forged.token.value"),
	}
	for _, r := range requests {
		resp := app.do(r)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, "%s %s", r.Method, r.URL.Path)
	}

	got, err := app.books.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Titre 1", got.Title)
	n, _ := app.books.Count(context.Background())
	assert.Equal(t, 1, n)
}

func TestRouter_CreateValidationAndDuplicates(t *testing.T) {
	app := newTestApp(t)
	tok := app.register(t, "Thomas", "t@example.com")

	invalid := map[string]string{"title": "ab", "author": "Autheur 1", "summary": "Sommaire numéro 1", "isbn": "9781234567890"}
	resp := app.do(testutil.NewRequestWithAuth(http.MethodPost, "/api/v1/books", invalid, tok))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.ErrorCode())
	n, _ := app.books.Count(context.Background())
	assert.Zero(t, n)

	resp = app.do(testutil.NewRequestWithAuth(http.MethodPost, "/api/v1/books", sampleBook, tok))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = app.do(testutil.NewRequestWithAuth(http.MethodPost, "/api/v1/books", sampleBook, tok))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = app.do(testutil.NewRequestWithAuth(http.MethodPost, "/api/v1/books", nil, tok))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code, "empty body reports missing fields")

	r := httptest.NewRequest(http.MethodPost, "/api/v1/books", strings.NewReader(`{"title":`))
	r.Header.Set("Authorization", "Bearer "+tok)
	resp = app.do(r)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRouter_ListPagination(t *testing.T) {
	app := newTestApp(t)
	for _, isbn := range []string{"9781234567890", "9781234567891", "9781234567892"} {
		b := &book.Book{Title: "Titre", Author: "Autheur", Summary: "Sommaire suffisant", ISBN: isbn}
		require.NoError(t, app.books.Insert(context.Background(), b))
	}

	resp := app.do(testutil.NewRequest(http.MethodGet, "/api/books", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	items, _ := resp.Body["data"].([]any)
	assert.Len(t, items, 2)
	meta, _ := resp.Body["meta"].(map[string]any)
	assert.Equal(t, float64(3), meta["total"])
	assert.Equal(t, float64(2), meta["total_pages"])

	resp = app.do(testutil.NewRequest(http.MethodGet, "/api/books?page=2", nil))
	items, _ = resp.Body["data"].([]any)
	assert.Len(t, items, 1)

	resp = app.do(testutil.NewRequest(http.MethodGet, "/api/v1/books?page=9223372036854775807", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	items, ok := resp.Body["data"].([]any)
	require.True(t, ok, "data is an empty list")
	assert.Empty(t, items)
	meta, _ = resp.Body["meta"].(map[string]any)
	assert.Equal(t, float64(3), meta["total"])
}

func TestRouter_SystemEndpoints(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(testutil.NewRequest(http.MethodGet, "/api/ping", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "pong", resp.Body["message"])

	resp = app.do(testutil.NewRequest(http.MethodGet, "/api/v1/docs/openapi.json", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "2.0", resp.Body["swagger"])

	resp = app.do(testutil.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	resp = app.do(testutil.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = app.do(testutil.NewRequest(http.MethodGet, "/api/v1/books/not-a-number", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = app.do(testutil.NewRequest(http.MethodGet, "/api/v1/nothing-here", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", resp.ErrorCode())

	resp = app.do(testutil.NewRequest(http.MethodDelete, "/api/v1/ping", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)

	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestRouter_ReadyzReportsStorageFailure(t *testing.T) {
	app := New(testConfig(), Storage{
		Books:  book.NewMemoryRepo(),
		Users:  user.NewMemoryRepo(),
		Tokens: token.NewMemoryRepo(),
		Ping:   func(context.Context) error { return errors.New("down") },
	}, nil, nil)
	t.Cleanup(app.Close)

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_LoginThrottle(t *testing.T) {
	app := newTestApp(t)
	creds := map[string]string{"email": "t@example.com", "password": "wrong-password"}

	for i := 0; i < 10; i++ {
		resp := app.do(testutil.NewRequest(http.MethodPost, "/api/v1/login", creds))
		require.Equal(t, http.StatusUnauthorized, resp.Code, "attempt %d", i+1)
	}

	resp := app.do(testutil.NewRequest(http.MethodPost, "/api/login", creds))
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", resp.ErrorCode())
}

func TestRouter_LoginThrottleIgnoresForwardedHeaders(t *testing.T) {
	app := newTestApp(t)
	creds := map[string]string{"email": "t@example.com", "password": "wrong-password"}

	throttled := 0
	for i := 0; i < 30; i++ {
		r := testutil.NewRequest(http.MethodPost, "/api/v1/login", creds)
		r.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i))
		if app.do(r).Code == http.StatusTooManyRequests {
			throttled++
		}
	}
	assert.Equal(t, 20, throttled)
}

func TestRouter_RegisterLongPassword(t *testing.T) {
	app := newTestApp(t)
	password := strings.Repeat("p", 80)

	resp := app.do(testutil.NewRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"name": "Thomas", "email": "t@example.com", "password": password,
	}))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = app.do(testutil.NewRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"email": "t@example.com", "password": password,
	}))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = app.do(testutil.NewRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"email": "t@example.com", "password": password[:72],
	}))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRoutes_EveryRouteDocumented(t *testing.T) {
	app := newTestApp(t)
	resp := app.do(testutil.NewRequest(http.MethodGet, "/api/docs/openapi.json", nil))
	paths, _ := resp.Body["paths"].(map[string]any)

	for _, route := range Routes(Handlers{Books: &book.HTTPHandler{}, Auth: &auth.HTTPHandler{}, Users: &user.HTTPHandler{}}) {
		if route.Pattern == "/docs/openapi.json" {
			continue
		}
		ops, ok := paths[route.Pattern].(map[string]any)
		if assert.True(t, ok, "path %s documented", route.Pattern) {
			assert.Contains(t, ops, strings.ToLower(route.Method), "%s %s documented", route.Method, route.Pattern)
		}
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
