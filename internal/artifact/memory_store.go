package artifact

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps artifacts in a map. It backs bundled artifact sets and
// tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	lookups int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Put adds or replaces an artifact.
func (m *MemoryStore) Put(name, network string, rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Name = name
	rec.Network = network
	m.records[Key(name, network)] = rec
}

// Lookup implements Store.
func (m *MemoryStore) Lookup(_ context.Context, name, network string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	rec, ok := m.records[Key(name, network)]
	if !ok {
		return Record{}, notFound(name, network)
	}
	return rec, nil
}

// LookupAll implements BulkStore.
func (m *MemoryStore) LookupAll(_ context.Context, network string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.records {
		if rec.Network == network {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Lookups returns how many single-name lookups reached the store.
func (m *MemoryStore) Lookups() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lookups
}
