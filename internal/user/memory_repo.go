package user

import (
	"context"
	"sync"
	"time"
)

var _ Repository = (*MemoryRepo)(nil)

type MemoryRepo struct {
	mu      sync.RWMutex
	nextID  int64
	users   map[int64]User
	byEmail map[string]int64
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		nextID:  1,
		users:   make(map[int64]User),
		byEmail: make(map[string]int64),
	}
}

func (m *MemoryRepo) Create(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[u.Email]; ok {
		return ErrEmailTaken
	}
	now := time.Now().UTC()
	u.ID = m.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	m.nextID++
	m.users[u.ID] = *u
	m.byEmail[u.Email] = u.ID
	return nil
}

func (m *MemoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *MemoryRepo) GetByID(ctx context.Context, id int64) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byEmail[email]
	return ok, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	delete(m.byEmail, u.Email)
	return nil
}
