package book

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrDuplicateISBN is returned by repositories when the isbn unique index rejects a write.
	ErrDuplicateISBN = errors.New("isbn already exists")
)

// Book represents a book entity.
type Book struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Summary   string    `json:"summary"`
	ISBN      string    `json:"isbn"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput carries the fields for a new book. All are required.
type CreateInput struct {
	Title   string `json:"title" validate:"required,min=3,max=255"`
	Author  string `json:"author" validate:"required,min=3,max=100"`
	Summary string `json:"summary" validate:"required,min=10,max=500"`
	ISBN    string `json:"isbn" validate:"required,len=13"`
}

// UpdateInput carries a partial update. Nil fields are left untouched; fields
// that are present are validated with the same rules as CreateInput.
type UpdateInput struct {
	Title   *string `json:"title" validate:"omitnil,required,min=3,max=255"`
	Author  *string `json:"author" validate:"omitnil,required,min=3,max=100"`
	Summary *string `json:"summary" validate:"omitnil,required,min=10,max=500"`
	ISBN    *string `json:"isbn" validate:"omitnil,required,len=13"`
}

// Empty reports whether no field was supplied.
func (in UpdateInput) Empty() bool {
	return in.Title == nil && in.Author == nil && in.Summary == nil && in.ISBN == nil
}

// Apply returns b with the supplied fields replaced.
func (in UpdateInput) Apply(b Book) Book {
	if in.Title != nil {
		b.Title = *in.Title
	}
	if in.Author != nil {
		b.Author = *in.Author
	}
	if in.Summary != nil {
		b.Summary = *in.Summary
	}
	if in.ISBN != nil {
		b.ISBN = *in.ISBN
	}
	return b
}

// Page is one slice of the book listing.
type Page struct {
	Items    []Book `json:"items"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Total    int    `json:"total"`
}

// TotalPages returns the number of pages needed for Total items.
func (p Page) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
