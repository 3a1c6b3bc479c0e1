package auth

import (
	"errors"

	"bookstore/internal/platform/crypto"
	"bookstore/internal/user"
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned for a bearer token that is malformed, badly
	// signed, revoked or bound to a user that no longer exists.
	ErrUnauthorized = errors.New("unauthorized")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, plain string) bool
}

// TokenIssuer mints signed bearer tokens. Issue returns the token string and
// its id; Parse verifies a token string and returns its claims.
type TokenIssuer interface {
	Issue(userID int64) (token, tokenID string, err error)
	Parse(token string) (*crypto.Claims, error)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Result is returned by Register and Login.
type Result struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}
