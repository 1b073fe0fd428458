// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// EmbeddingService generates vector embeddings from text via an external provider.
// This is an optional service - when nil, every embedding comes from the fallback.
//
// Implementations may include:
//   - OpenAI-compatible APIs (x.ai grok-1, text-embedding-3-small)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Google Gemini (text-embedding-004)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size, 0 when unknown until first call.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Embedder maps text to vectors and never fails.
// When the external service is unavailable it falls back to a deterministic
// local embedding; the returned domain.Embedding records which branch ran.
type Embedder interface {
	// Embed embeds a single text.
	Embed(ctx context.Context, text string) domain.Embedding

	// EmbedBatch embeds texts in order. All results share one embedding space.
	EmbedBatch(ctx context.Context, texts []string) []domain.Embedding
}

// EmbeddingCache stores service embeddings keyed by space and text.
type EmbeddingCache interface {
	// Get returns the cached vector, or ok=false on a miss.
	Get(ctx context.Context, key string) (vector []float32, ok bool, err error)

	// Set stores a vector with the given time to live. Zero ttl means no expiry.
	Set(ctx context.Context, key string, vector []float32, ttl time.Duration) error

	// Close releases resources.
	Close() error
}
