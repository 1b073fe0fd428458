package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Chunker splits extracted text into overlapping, size-bounded chunks.
type Chunker interface {
	// Chunk splits text into chunks owned by documentID. Chunk metadata carries
	// filename as its source, plus position and total count. Embeddings are unset.
	Chunk(ctx context.Context, documentID, filename, text string) ([]domain.Chunk, error)
}
