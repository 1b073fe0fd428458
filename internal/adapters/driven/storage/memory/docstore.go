// Package memory provides an in-process document registry.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	// order records insertion so equal upload times list deterministically.
	order map[string]int
	seq   int
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		order:     make(map[string]int),
	}
}

// SaveDocument stores or replaces a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *doc
	stored.ChunkIDs = slices.Clone(doc.ChunkIDs)
	if stored.UploadedAt.IsZero() {
		stored.UploadedAt = time.Now()
	}
	if _, ok := s.order[doc.ID]; !ok {
		s.seq++
		s.order[doc.ID] = s.seq
	}
	s.documents[doc.ID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc.ChunkIDs = slices.Clone(doc.ChunkIDs)
	return &doc, nil
}

// DeleteDocument removes a document.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.order, id)
	return nil
}

// ListDocuments returns all documents, oldest first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		doc.ChunkIDs = slices.Clone(doc.ChunkIDs)
		docs = append(docs, doc)
	}
	slices.SortFunc(docs, func(a, b domain.Document) int {
		if c := a.UploadedAt.Compare(b.UploadedAt); c != 0 {
			return c
		}
		return s.order[a.ID] - s.order[b.ID]
	})
	return docs, nil
}
