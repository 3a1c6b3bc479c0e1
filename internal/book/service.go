package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bookstore/internal/platform/validation"
)

const (
	DefaultPageSize = 2
	MaxPageSize     = 100

	isbnTakenMessage = "isbn has already been taken"
)

// Service provides book-related business logic.
type Service struct {
	repo     Repository
	cache    Cache
	pageSize int
	logger   *slog.Logger
}

// NewService creates a new book service. cache may be nil to disable caching.
func NewService(repo Repository, cache Cache, pageSize int, logger *slog.Logger) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, pageSize: pageSize, logger: logger}
}

// PageSize is the page size used when callers do not ask for one.
func (s *Service) PageSize() int {
	return s.pageSize
}

// List returns one page of books ordered by id.
func (s *Service) List(ctx context.Context, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("count books: %w", err)
	}
	result := Page{Items: []Book{}, Page: page, PageSize: pageSize, Total: total}
	// Pages past the end are empty; checking first keeps the offset from overflowing.
	if page-1 > total/pageSize {
		return result, nil
	}

	items, err := s.repo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return Page{}, fmt.Errorf("list books: %w", err)
	}
	if items != nil {
		result.Items = items
	}
	return result, nil
}

// Get returns a book by id, serving from the cache when possible.
func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	if s.cache != nil {
		if b, ok := s.cache.Get(id); ok {
			return b, nil
		}
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Book{}, err
	}
	if s.cache != nil {
		s.cache.Set(id, b)
	}
	return b, nil
}

// Create validates in and persists a new book.
func (s *Service) Create(ctx context.Context, in CreateInput) (Book, error) {
	if verr := validation.Struct(in); verr != nil {
		return Book{}, verr
	}

	taken, err := s.repo.ExistsByISBN(ctx, in.ISBN, 0)
	if err != nil {
		return Book{}, fmt.Errorf("check isbn: %w", err)
	}
	if taken {
		return Book{}, validation.NewError("isbn", isbnTakenMessage)
	}

	b := &Book{Title: in.Title, Author: in.Author, Summary: in.Summary, ISBN: in.ISBN}
	if err := s.repo.Insert(ctx, b); err != nil {
		if errors.Is(err, ErrDuplicateISBN) {
			return Book{}, validation.NewError("isbn", isbnTakenMessage)
		}
		return Book{}, fmt.Errorf("insert book: %w", err)
	}

	s.logger.Info("book created", "book_id", b.ID, "isbn", b.ISBN)
	return *b, nil
}

// Update applies the supplied fields of in to the book with the given id.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Book, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Book{}, err
	}

	if verr := validation.Struct(in); verr != nil {
		return Book{}, verr
	}
	if in.Empty() {
		return current, nil
	}

	if in.ISBN != nil && *in.ISBN != current.ISBN {
		taken, err := s.repo.ExistsByISBN(ctx, *in.ISBN, id)
		if err != nil {
			return Book{}, fmt.Errorf("check isbn: %w", err)
		}
		if taken {
			return Book{}, validation.NewError("isbn", isbnTakenMessage)
		}
	}

	updated, err := s.repo.UpdatePartial(ctx, id, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return Book{}, err
		case errors.Is(err, ErrDuplicateISBN):
			return Book{}, validation.NewError("isbn", isbnTakenMessage)
		}
		return Book{}, fmt.Errorf("update book: %w", err)
	}

	s.invalidate(id)
	s.logger.Info("book updated", "book_id", id)
	return updated, nil
}

// Delete permanently removes the book with the given id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete book: %w", err)
	}

	s.invalidate(id)
	s.logger.Info("book deleted", "book_id", id)
	return nil
}

func (s *Service) invalidate(id int64) {
	if s.cache != nil {
		s.cache.Delete(id)
	}
}
