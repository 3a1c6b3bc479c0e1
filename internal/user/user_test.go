package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookstore/internal/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_UsesProfessionalEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{email: "john@entreprise.com", want: true},
		{email: "t@example.com", want: true},
		{email: "john@gmail.com", want: false},
		{email: "John@GMAIL.com", want: false},
		{email: "jane@yahoo.fr", want: false},
		{email: "jane@hotmail.co.uk", want: false},
		{email: "jane@outlook.com", want: false},
		{email: "jane@mail.gmail.company.io", want: true},
		{email: "not-an-email", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, User{Email: tt.email}.UsesProfessionalEmail())
		})
	}
}

func TestUser_PasswordHashNeverSerialized(t *testing.T) {
	raw, err := json.Marshal(NewProfile(User{ID: 1, Name: "Thomas", Email: "t@example.com", PasswordHash: "$2a$10$secret"}))
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "secret")
	assert.Contains(t, string(raw), `"uses_professional_email":true`)
	assert.Contains(t, string(raw), `"email":"t@example.com"`)
}

func TestMemoryRepo(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	u := &User{Name: "Thomas", Email: "t@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, int64(1), u.ID)

	assert.ErrorIs(t, repo.Create(ctx, &User{Name: "Other", Email: "t@example.com"}), ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, "t@example.com")
	require.NoError(t, err)
	assert.Equal(t, *u, got)

	exists, err := repo.ExistsByEmail(ctx, "t@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx, u.ID))
	assert.ErrorIs(t, repo.Delete(ctx, u.ID), ErrNotFound)
	exists, err = repo.ExistsByEmail(ctx, "t@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestHTTPHandler_GetCurrentUser(t *testing.T) {
	repo := NewMemoryRepo()
	u := &User{Name: "Thomas", Email: "t@gmail.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	handler := NewHTTPHandler(NewService(repo))

	t.Run("authenticated", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/user", nil)
		r = r.WithContext(httpx.ContextWithUser(r.Context(), u.ID, "jti"))
		w := httptest.NewRecorder()

		handler.GetCurrentUser(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data map[string]any `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "Thomas", body.Data["name"])
		assert.Equal(t, false, body.Data["uses_professional_email"])
		assert.NotContains(t, body.Data, "password_hash")
	})

	t.Run("no user in context", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetCurrentUser(w, httptest.NewRequest(http.MethodGet, "/user", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("user vanished", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/user", nil)
		r = r.WithContext(httpx.ContextWithUser(r.Context(), 404, "jti"))
		w := httptest.NewRecorder()

		handler.GetCurrentUser(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
