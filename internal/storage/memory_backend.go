package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend is an in-memory implementation of SceneStore for testing.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]SceneRecord
}

// NewMemoryBackend creates a new in-memory store.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]SceneRecord)}
}

// Initialize implements SceneStore.
func (m *MemoryBackend) Initialize(path string, readOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		m.records = make(map[string]SceneRecord)
	}
	return nil
}

// Close implements SceneStore.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

// PutRecords implements SceneStore.
func (m *MemoryBackend) PutRecords(ctx context.Context, records []SceneRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
		m.records[r.Identifier] = r
	}
	return nil
}

// GetRecord implements SceneStore.
func (m *MemoryBackend) GetRecord(ctx context.Context, identifier string) (SceneRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[identifier]
	if !ok {
		return SceneRecord{}, ErrSceneNotFound
	}
	return r, nil
}

// ListIdentifiers implements SceneStore.
func (m *MemoryBackend) ListIdentifiers(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ListRecords implements SceneStore.
func (m *MemoryBackend) ListRecords(ctx context.Context) ([]SceneRecord, error) {
	ids, _ := m.ListIdentifiers(ctx)

	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]SceneRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, m.records[id])
	}
	return records, nil
}

// DeleteRecord implements SceneStore.
func (m *MemoryBackend) DeleteRecord(ctx context.Context, identifier string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[identifier]; !ok {
		return false, nil
	}
	delete(m.records, identifier)
	return true, nil
}

// RecordCount implements SceneStore.
func (m *MemoryBackend) RecordCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
