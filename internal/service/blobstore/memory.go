package blobstore

import (
	"context"
	"fmt"
	"sync"

	"zkmsg/internal/errs"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, data []byte) (string, error) {
	id := uuid.NewString()

	m.mu.Lock()
	m.blobs[id] = append([]byte(nil), data...)
	m.mu.Unlock()

	return id, nil
}

func (m *MemoryStore) Get(_ context.Context, blobID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[blobID]
	if !ok {
		return nil, fmt.Errorf("%w: blob %s", errs.ErrNotFound, blobID)
	}
	return append([]byte(nil), data...), nil
}
