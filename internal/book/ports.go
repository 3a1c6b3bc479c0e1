package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

// Repository defines the contract for book data storage.
type Repository interface {
	List(ctx context.Context, limit, offset int) ([]Book, error)
	Count(ctx context.Context) (int, error)
	GetByID(ctx context.Context, id int64) (Book, error)
	// ExistsByISBN reports whether another book uses isbn. excludeID (0 for none)
	// is ignored so a book does not conflict with itself.
	ExistsByISBN(ctx context.Context, isbn string, excludeID int64) (bool, error)
	Insert(ctx context.Context, b *Book) error
	UpdatePartial(ctx context.Context, id int64, in UpdateInput) (Book, error)
	Delete(ctx context.Context, id int64) error
}

// Cache memoizes single-book lookups by id.
type Cache interface {
	Get(id int64) (Book, bool)
	Set(id int64, b Book)
	Delete(id int64)
}
