package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory ShareStore for tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	shares map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{shares: make(map[string][]byte)}
}

func (m *MemoryStore) PutShare(_ context.Context, userID string, share []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(share))
	copy(buf, share)
	m.shares[userID] = buf
	return nil
}

func (m *MemoryStore) GetShare(_ context.Context, userID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	share, ok := m.shares[userID]
	if !ok {
		return nil, ErrShareNotFound
	}
	buf := make([]byte, len(share))
	copy(buf, share)
	return buf, nil
}

func (m *MemoryStore) DeleteShare(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shares, userID)
	return nil
}
