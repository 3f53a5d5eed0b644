package storage

import (
	"context"
	"sync"
)

// MemoryProvider keeps blobs in a map; test double.
type MemoryProvider struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemoryProvider returns an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{blobs: make(map[string][]byte)}
}

// Save stores a copy of data under objectName.
func (m *MemoryProvider) Save(_ context.Context, objectName string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[objectName] = cp
	return "mem://" + objectName, nil
}

// Get returns the stored blob and whether it exists.
func (m *MemoryProvider) Get(objectName string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[objectName]
	return data, ok
}
