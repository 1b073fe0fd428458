package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentStore is the document registry.
// It records which documents exist; the chunks themselves live in the VectorIndex.
type DocumentStore interface {
	// SaveDocument stores or replaces a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID, or domain.ErrNotFound.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteDocument removes a document. Unknown IDs return domain.ErrNotFound.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents, oldest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}
