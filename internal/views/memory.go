package views

import (
	"context"
	"sort"
	"sync"
)

// MemoryIndex is the in-memory Index used by tests and by the registry when
// it runs without MongoDB.
type MemoryIndex struct {
	mu   sync.RWMutex
	rows map[string]Entry
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{rows: make(map[string]Entry)}
}

func (m *MemoryIndex) Update(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[e.DocID] = *e
	return nil
}

func (m *MemoryIndex) Remove(ctx context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, docID)
	return nil
}

func (m *MemoryIndex) ByCallsign(ctx context.Context, callsign string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Entry{}
	for _, e := range m.rows {
		if e.Callsign == callsign {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeCreated < out[j].TimeCreated })
	return out, nil
}
