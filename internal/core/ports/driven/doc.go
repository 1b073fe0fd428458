// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Chunker: Splits extracted text into overlapping chunks
//   - Embedder: Maps text to vectors, never failing (service or fallback)
//   - VectorIndex: Stores chunk vectors and answers nearest-neighbour queries
//   - DocumentStore: Document registry used for existence checks and listing
//   - NormaliserRegistry: Extracts plain text from uploaded files
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: External embeddings. Without it, every vector comes from the fallback.
//   - EmbeddingCache: Caches service embeddings by text.
//   - LLMService: Answer generation. Without it, queries return sources only.
//   - PromptStore: Prompt overrides. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
