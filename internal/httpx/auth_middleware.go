package httpx

import (
	"context"
	"net/http"
	"strings"
)

// Authenticator resolves a bearer token to the user it was issued to and the
// id of the token itself. Revoked or unknown tokens must return an error.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (userID int64, tokenID string, err error)
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authHeader[7:])
	return token, token != ""
}

func AuthMiddleware(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				JSONUnauthorized(w, r)
				return
			}

			userID, tokenID, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				JSONUnauthorized(w, r)
				return
			}

			ctx := ContextWithUser(r.Context(), userID, tokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
