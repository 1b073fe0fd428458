package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// VectorIndex stores (vector, text, metadata) records and answers
// nearest-neighbour queries under cosine distance.
//
// Implementations must make AddBatch atomic for concurrent readers: a query
// never observes part of a batch.
type VectorIndex interface {
	// Add inserts one record. Duplicate chunk IDs return domain.ErrAlreadyExists.
	Add(ctx context.Context, record VectorRecord) error

	// AddBatch inserts all records or none of them.
	AddBatch(ctx context.Context, records []VectorRecord) error

	// Query returns up to topK records nearest to vector, ascending distance.
	// An empty index yields an empty slice, not an error.
	Query(ctx context.Context, vector []float32, topK int, filter QueryFilter) ([]VectorHit, error)

	// DeleteWhere removes every record tagged with documentID and returns how many.
	// It is a no-op when nothing matches.
	DeleteWhere(ctx context.Context, documentID string) (int, error)

	// Count returns the number of records currently indexed.
	Count(ctx context.Context) (int, error)

	// Name identifies the backend, e.g. "memory" or "chromem".
	Name() string

	// Close releases resources.
	Close() error
}

// VectorRecord is one indexed chunk.
type VectorRecord struct {
	// ChunkID is unique within the index.
	ChunkID string

	// Vector is the chunk embedding.
	Vector []float32

	// Text is the chunk content.
	Text string

	// Metadata must carry DocumentID for DeleteWhere to find the record.
	Metadata domain.ChunkMetadata
}

// QueryFilter restricts the candidates of a query.
type QueryFilter struct {
	// EmbeddingSpace, when set, limits candidates to that space.
	EmbeddingSpace string
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Text is the chunk content.
	Text string

	// Metadata is the chunk metadata.
	Metadata domain.ChunkMetadata

	// Distance is the cosine distance (1 - cosine similarity).
	Distance float64
}
