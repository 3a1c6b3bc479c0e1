package token

import (
	"context"
	"sync"
	"time"
)

var _ Repository = (*MemoryRepo)(nil)

type MemoryRepo struct {
	mu     sync.RWMutex
	tokens map[string]AccessToken
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tokens: make(map[string]AccessToken)}
}

func (m *MemoryRepo) Create(ctx context.Context, t *AccessToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.Name == "" {
		t.Name = DefaultName
	}
	t.CreatedAt = time.Now().UTC()
	m.tokens[t.ID] = *t
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (AccessToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tokens[id]
	if !ok {
		return AccessToken{}, ErrNotFound
	}
	return t, nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[id]; !ok {
		return ErrNotFound
	}
	delete(m.tokens, id)
	return nil
}

func (m *MemoryRepo) Touch(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	t.LastUsedAt = &now
	m.tokens[id] = t
	return nil
}
