package user

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=user

type Repository interface {
	// Create persists u and fills in its ID and timestamps. A duplicate email
	// yields ErrEmailTaken.
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Delete removes the user and, through the foreign key, its tokens.
	Delete(ctx context.Context, id int64) error
}
