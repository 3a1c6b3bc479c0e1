package token

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("access token not found")

// DefaultName is the name given to tokens issued on register and login.
const DefaultName = "auth_token"

// AccessToken is the server-side record of an issued bearer token. ID is the
// token's jti claim; deleting the record revokes the token.
type AccessToken struct {
	ID         string     `json:"id"`
	UserID     int64      `json:"user_id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}
