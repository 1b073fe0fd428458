// Package domain defines the core business entities for docqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested document and the identifiers of its chunks
//   - Chunk: A retrievable span of a document's text with its embedding
//   - Embedding: A vector tagged with its provenance and embedding space
//   - QueryResult: A chunk projected against one query vector
//   - Settings: Runtime configuration for every adapter
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
