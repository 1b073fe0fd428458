package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Document represents an ingested document.
// The text itself lives only in the document's chunks.
type Document struct {
	// ID is the unique identifier for the document (UUIDv4).
	ID string

	// Filename is the original name of the uploaded file.
	Filename string

	// UploadedAt is when ingestion completed.
	UploadedAt time.Time

	// ChunkIDs lists the document's chunks in position order.
	ChunkIDs []string

	// ChunkCount is the total number of chunks.
	ChunkCount int

	// CharacterCount is the rune count summed over the chunks, overlap included.
	CharacterCount int

	// EmbeddingSpace identifies the vector space the chunks were embedded in.
	EmbeddingSpace string
}

// Chunk represents a retrievable unit within a document.
// Chunks are immutable once indexed.
type Chunk struct {
	// ID is the unique identifier for the chunk, see ChunkID.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the zero-based ordinal position within the document.
	Position int

	// TotalChunks is the chunk count of the parent document.
	TotalChunks int

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Metadata contains the typed chunk metadata.
	Metadata ChunkMetadata
}

// ChunkID builds the identifier of the chunk at position within a document.
func ChunkID(documentID string, position int) string {
	return fmt.Sprintf("%s_%d", documentID, position)
}

// Metadata keys used when chunk metadata is flattened into string maps.
const (
	MetadataSource         = "source"
	MetadataDocumentID     = "document_id"
	MetadataPosition       = "position"
	MetadataTotalChunks    = "total_chunks"
	MetadataEmbeddingSpace = "embedding_space"
)

// ChunkMetadata is the metadata carried by every indexed chunk.
type ChunkMetadata struct {
	// Source is the filename the chunk came from.
	Source string `json:"source"`

	// DocumentID links the chunk to its document.
	DocumentID string `json:"document_id"`

	// Position is the chunk's index within the document.
	Position int `json:"position"`

	// TotalChunks is the chunk count of the document.
	TotalChunks int `json:"total_chunks"`

	// EmbeddingSpace identifies the vector space of the chunk's embedding.
	EmbeddingSpace string `json:"embedding_space,omitempty"`

	// Extra holds optional additional key-value pairs.
	Extra map[string]string `json:"extra,omitempty"`
}

// Flatten converts the metadata into a string map.
// Extra entries never override the fixed keys.
func (m ChunkMetadata) Flatten() map[string]string {
	out := make(map[string]string, len(m.Extra)+5)
	for k, v := range m.Extra {
		out[k] = v
	}
	out[MetadataSource] = m.Source
	out[MetadataDocumentID] = m.DocumentID
	out[MetadataPosition] = strconv.Itoa(m.Position)
	out[MetadataTotalChunks] = strconv.Itoa(m.TotalChunks)
	if m.EmbeddingSpace != "" {
		out[MetadataEmbeddingSpace] = m.EmbeddingSpace
	}
	return out
}

// ParseChunkMetadata is the inverse of Flatten.
// Malformed numeric fields decode as zero.
func ParseChunkMetadata(flat map[string]string) ChunkMetadata {
	m := ChunkMetadata{
		Source:         flat[MetadataSource],
		DocumentID:     flat[MetadataDocumentID],
		EmbeddingSpace: flat[MetadataEmbeddingSpace],
	}
	m.Position, _ = strconv.Atoi(flat[MetadataPosition])
	m.TotalChunks, _ = strconv.Atoi(flat[MetadataTotalChunks])

	for k, v := range flat {
		switch k {
		case MetadataSource, MetadataDocumentID, MetadataPosition,
			MetadataTotalChunks, MetadataEmbeddingSpace:
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]string)
		}
		m.Extra[k] = v
	}
	return m
}
