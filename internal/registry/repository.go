package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/skyfield/listenerd/internal/document"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document revision conflict")
)

// Repository provides persistence for registry documents. Revision numbering
// and validation live in the Service; repositories only store what they are
// given.
type Repository interface {
	Get(ctx context.Context, id string) (document.Doc, error)
	Put(ctx context.Context, id string, doc document.Doc) error
	Delete(ctx context.Context, id string) error
	ListByType(ctx context.Context, docType string) ([]document.Doc, error)
}

// MemoryRepo is a simple in-memory repository used for unit tests and for
// running the registry without MongoDB.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]document.Doc
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]document.Doc)}
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (document.Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.Clone(), nil
}

func (m *MemoryRepo) Put(ctx context.Context, id string, doc document.Doc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[id] = doc.Clone()
	return nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MemoryRepo) ListByType(ctx context.Context, docType string) ([]document.Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []document.Doc{}
	for _, d := range m.store {
		if d.Type() == docType {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}
