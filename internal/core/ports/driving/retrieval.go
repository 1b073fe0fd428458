package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// RetrievalService manages the document lifecycle: ingest, query, delete.
type RetrievalService interface {
	// Ingest chunks, embeds and indexes raw text as a new document.
	// Empty input returns domain.ErrProcessing and creates nothing.
	Ingest(ctx context.Context, rawText, filename string) (*domain.Document, error)

	// AnswerQuery returns the topK chunks nearest to question, ascending distance.
	// No results returns domain.ErrNotFound.
	AnswerQuery(ctx context.Context, question string, topK int) ([]domain.QueryResult, error)

	// Delete removes a document and all its chunks.
	// Unknown IDs return domain.ErrNotFound.
	Delete(ctx context.Context, documentID string) error

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns all known documents.
	List(ctx context.Context) ([]domain.Document, error)

	// Stats summarises the index contents.
	Stats(ctx context.Context) (*domain.IndexStats, error)
}
