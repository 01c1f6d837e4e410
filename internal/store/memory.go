package store

import (
	"context"
	"sync"

	"github.com/kindredlab/kindred/backend/internal/model/session"
)

// MemoryStore implements Store with an in-process map, suitable for local
// runs and tests. Listing order is insertion order, which keeps the
// matcher's tie-break deterministic.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]memoryRecord
	order []string
}

type memoryRecord struct {
	doc session.Document
	rev string
}

// NewMemoryStore returns an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]memoryRecord)}
}

// Get retrieves a document by id.
func (s *MemoryStore) Get(_ context.Context, id string) (session.Document, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.docs[id]
	if !ok {
		return session.Document{}, "", ErrNotFound
	}
	return rec.doc.Clone(), rec.rev, nil
}

// Put writes a document under the optimistic-concurrency contract.
func (s *MemoryStore) Put(_ context.Context, id string, doc session.Document, rev string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.docs[id]
	if rev == "" {
		if exists {
			return "", ErrConflict
		}
	} else if !exists || rec.rev != rev {
		return "", ErrConflict
	}

	next := nextRevision(rev)
	s.docs[id] = memoryRecord{doc: doc.Clone(), rev: next}
	if !exists {
		s.order = append(s.order, id)
	}
	return next, nil
}

// List returns every document in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, Entry{ID: id, Document: s.docs[id].doc.Clone()})
	}
	return entries, nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
