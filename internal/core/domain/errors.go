package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Queries that match no chunks also report ErrNotFound.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Ingestion Errors.

	// ErrUnsupportedFormat indicates the file extension is not recognised.
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrExtraction indicates text extraction failed for a recognised format.
	ErrExtraction = errors.New("text extraction failed")

	// ErrProcessing indicates the input produced nothing to index.
	ErrProcessing = errors.New("processing failed")

	// Index Errors.

	// ErrDimensionMismatch indicates a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// AI Errors.

	// ErrEmbeddingService indicates the external embedding service failed.
	// It never leaves the embedder; callers always receive a vector.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrAnswerGeneration indicates the answer-generation call failed.
	// It is converted into explanatory answer text before reaching callers.
	ErrAnswerGeneration = errors.New("answer generation error")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
