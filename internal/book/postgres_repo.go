package book

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"bookstore/internal/platform/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const isbnConstraint = "books_isbn_key"

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

func (r *PostgresRepo) List(ctx context.Context, limit, offset int) ([]Book, error) {
	const query = `
		SELECT id, title, author, summary, isbn, created_at, updated_at
		FROM books
		ORDER BY id
		LIMIT $1 OFFSET $2`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Summary, &b.ISBN, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, `SELECT COUNT(*) FROM books`).Scan(&total)
	return total, err
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Book, error) {
	const query = `
		SELECT id, title, author, summary, isbn, created_at, updated_at
		FROM books
		WHERE id = $1`

	var b Book
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.Summary, &b.ISBN, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) ExistsByISBN(ctx context.Context, isbn string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM books WHERE isbn = $1 AND id <> $2)`

	var exists bool
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, isbn, excludeID).Scan(&exists)
	return exists, err
}

func (r *PostgresRepo) Insert(ctx context.Context, b *Book) error {
	const query = `
		INSERT INTO books (title, author, summary, isbn)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, b.Title, b.Author, b.Summary, b.ISBN).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if postgres.IsUniqueViolation(err, isbnConstraint) {
		return ErrDuplicateISBN
	}
	return err
}

func (r *PostgresRepo) UpdatePartial(ctx context.Context, id int64, in UpdateInput) (Book, error) {
	fields := []string{}
	args := []any{}
	argn := 1

	set := func(column string, value *string) {
		if value == nil {
			return
		}
		fields = append(fields, column+" = $"+strconv.Itoa(argn))
		args = append(args, *value)
		argn++
	}
	set("title", in.Title)
	set("author", in.Author)
	set("summary", in.Summary)
	set("isbn", in.ISBN)

	if len(fields) == 0 {
		return r.GetByID(ctx, id)
	}

	fields = append(fields, "updated_at = now()")
	args = append(args, id)

	query := "UPDATE books SET " + strings.Join(fields, ", ") +
		" WHERE id = $" + strconv.Itoa(argn) +
		" RETURNING id, title, author, summary, isbn, created_at, updated_at"

	var b Book
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, query, args...).Scan(
		&b.ID, &b.Title, &b.Author, &b.Summary, &b.ISBN, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		if postgres.IsUniqueViolation(err, isbnConstraint) {
			return Book{}, ErrDuplicateISBN
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
