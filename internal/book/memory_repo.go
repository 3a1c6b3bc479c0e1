package book

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Repository = (*MemoryRepo)(nil)

// MemoryRepo keeps books in a mutex-guarded map. It enforces isbn uniqueness
// the way the Postgres unique index does.
type MemoryRepo struct {
	mu     sync.Mutex
	nextID int64
	books  map[int64]Book
	now    func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		nextID: 1,
		books:  make(map[int64]Book),
		now:    time.Now,
	}
}

func (m *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.books))
	for id := range m.books {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if offset < 0 {
		offset = 0
	}
	out := []Book{}
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		out = append(out, m.books[ids[i]])
	}
	return out, nil
}

func (m *MemoryRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.books), nil
}

func (m *MemoryRepo) GetByID(ctx context.Context, id int64) (Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.books[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	return b, nil
}

func (m *MemoryRepo) ExistsByISBN(ctx context.Context, isbn string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isbnTaken(isbn, excludeID), nil
}

func (m *MemoryRepo) isbnTaken(isbn string, excludeID int64) bool {
	for id, b := range m.books {
		if id != excludeID && b.ISBN == isbn {
			return true
		}
	}
	return false
}

func (m *MemoryRepo) Insert(ctx context.Context, b *Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isbnTaken(b.ISBN, 0) {
		return ErrDuplicateISBN
	}
	now := m.now().UTC()
	b.ID = m.nextID
	b.CreatedAt = now
	b.UpdatedAt = now
	m.nextID++
	m.books[b.ID] = *b
	return nil
}

func (m *MemoryRepo) UpdatePartial(ctx context.Context, id int64, in UpdateInput) (Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.books[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	if in.ISBN != nil && m.isbnTaken(*in.ISBN, id) {
		return Book{}, ErrDuplicateISBN
	}
	updated := in.Apply(current)
	updated.UpdatedAt = m.now().UTC()
	m.books[id] = updated
	return updated, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return ErrNotFound
	}
	delete(m.books, id)
	return nil
}

