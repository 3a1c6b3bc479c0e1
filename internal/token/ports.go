package token

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, t *AccessToken) error
	Get(ctx context.Context, id string) (AccessToken, error)
	// Delete removes the token with the given id. ErrNotFound if absent.
	Delete(ctx context.Context, id string) error
	Touch(ctx context.Context, id string) error
}
