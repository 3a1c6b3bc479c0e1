package token

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) Create(ctx context.Context, t *AccessToken) error {
	const query = `
	INSERT INTO access_tokens (id, user_id, name)
	VALUES ($1, $2, $3)
	RETURNING created_at
	`
	if t.Name == "" {
		t.Name = DefaultName
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.QueryRow(timeoutCtx, query, t.ID, t.UserID, t.Name).Scan(&t.CreatedAt)
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (AccessToken, error) {
	const query = `
	SELECT id, user_id, name, created_at, last_used_at
	FROM access_tokens
	WHERE id = $1
	`
	var t AccessToken
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, id).Scan(&t.ID, &t.UserID, &t.Name, &t.CreatedAt, &t.LastUsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccessToken{}, ErrNotFound
		}
		return AccessToken{}, err
	}
	return t, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	result, err := r.db.Exec(timeoutCtx, `DELETE FROM access_tokens WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Touch(ctx context.Context, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	_, err := r.db.Exec(timeoutCtx, `UPDATE access_tokens SET last_used_at = now() WHERE id = $1`, id)
	return err
}
