package domain

import "time"

// DefaultTopK is the number of chunks retrieved when a query does not say.
const DefaultTopK = 3

// QueryResult is a chunk projected against one query vector.
// It is never persisted.
type QueryResult struct {
	// ChunkID identifies the matched chunk.
	ChunkID string `json:"chunk_id"`

	// Text is the chunk content.
	Text string `json:"text"`

	// Metadata is the chunk metadata.
	Metadata ChunkMetadata `json:"metadata"`

	// Distance is the cosine distance to the query, lower is closer.
	Distance float64 `json:"distance"`
}

// Answer is the outcome of a question answered over retrieved chunks.
type Answer struct {
	// Question is the question as asked.
	Question string `json:"question"`

	// Answer is the generated answer, or explanatory text when generation failed.
	Answer string `json:"answer"`

	// Sources are the chunks the answer was grounded on, nearest first.
	Sources []QueryResult `json:"sources"`

	// ResponseTime is the wall time spent answering.
	ResponseTime time.Duration `json:"-"`
}

// UploadResult reports a successful upload.
type UploadResult struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunks_created"`
}

// IndexStats summarises the contents of the vector index.
type IndexStats struct {
	TotalChunks     int     `json:"total_chunks"`
	TotalDocuments  int     `json:"total_documents"`
	TotalCharacters int     `json:"total_characters"`
	AverageChunk    float64 `json:"average_chunk_size"`
	Backend         string  `json:"backend"`
}
