package domain

// EmbeddingProvenance records which branch produced an embedding.
type EmbeddingProvenance string

// Available provenances.
const (
	// ProvenanceService means the external embedding service produced the vector.
	ProvenanceService EmbeddingProvenance = "service"

	// ProvenanceFallback means the deterministic local fallback produced the vector.
	ProvenanceFallback EmbeddingProvenance = "fallback"
)

// String returns the string representation.
func (p EmbeddingProvenance) String() string {
	return string(p)
}

// Embedding is the result of embedding one text.
// Both branches are successful results; only Provenance tells them apart.
type Embedding struct {
	// Vector is the embedding itself.
	Vector []float32

	// Provenance records which branch produced Vector.
	Provenance EmbeddingProvenance

	// Space identifies the vector space, e.g. "openai:grok-1" or "fallback:sha256-384".
	// Vectors are only comparable within one space.
	Space string
}

// IsFallback reports whether the vector came from the local fallback.
func (e Embedding) IsFallback() bool {
	return e.Provenance == ProvenanceFallback
}

// Dimensions returns the vector length.
func (e Embedding) Dimensions() int {
	return len(e.Vector)
}
