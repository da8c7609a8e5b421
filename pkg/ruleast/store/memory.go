package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory rule store.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]storedRule
	closed bool
}

type storedRule struct {
	data      []byte
	createdAt time.Time
}

// NewMemoryStore creates a new in-memory rule store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]storedRule),
	}
}

// Save implements Store. Overwriting keeps the original creation time.
func (m *MemoryStore) Save(_ context.Context, id string, data []byte) error {
	if id == "" {
		return ErrEmptyID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	createdAt := time.Now().UTC()
	if prev, ok := m.data[id]; ok {
		createdAt = prev.createdAt
	}

	// Copy data to avoid retaining caller's slice
	stored := make([]byte, len(data))
	copy(stored, data)

	m.data[id] = storedRule{data: stored, createdAt: createdAt}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	r, ok := m.data[id]
	if !ok {
		return nil, ErrNotFound
	}

	result := make([]byte, len(r.data))
	copy(result, r.data)
	return result, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.data))
	for id, r := range m.data {
		infos = append(infos, Info{
			ID:        id,
			CreatedAt: r.createdAt,
			Size:      int64(len(r.data)),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.Before(infos[j].CreatedAt)
		}
		return infos[i].ID < infos[j].ID
	})

	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, id)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}
