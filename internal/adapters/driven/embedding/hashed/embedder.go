// Package hashed provides the deterministic local fallback embedding.
//
// Vectors are derived from the SHA-256 digest of the text, which seeds a
// PCG generator producing standard-normal components. The same text always
// yields the same vector. The vectors carry no semantic signal; they keep the
// retrieval path available when no embedding service is.
package hashed

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultDimensions is the fallback vector size.
const DefaultDimensions = 384

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Embedder produces hash-seeded vectors. It never fails and is safe for
// concurrent use.
type Embedder struct {
	dimensions int
}

// New creates a fallback embedder. Non-positive dimensions use DefaultDimensions.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Space identifies the fallback vector space.
func (e *Embedder) Space() string {
	return fmt.Sprintf("fallback:sha256-%d", e.dimensions)
}

// Vector derives the vector for text.
func (e *Embedder) Vector(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	rng := rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(sum[0:8]),
		binary.LittleEndian.Uint64(sum[8:16]),
	))

	v := make([]float32, e.dimensions)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	return v
}

// Embed returns the fallback embedding for text.
func (e *Embedder) Embed(_ context.Context, text string) domain.Embedding {
	return domain.Embedding{
		Vector:     e.Vector(text),
		Provenance: domain.ProvenanceFallback,
		Space:      e.Space(),
	}
}

// EmbedBatch returns fallback embeddings for texts, in order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) []domain.Embedding {
	out := make([]domain.Embedding, len(texts))
	for i, text := range texts {
		out[i] = e.Embed(ctx, text)
	}
	return out
}
