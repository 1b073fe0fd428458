// Package sqlite provides a SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. A single database file backs two ports:
//
//   - DocumentStore: the document registry
//   - VectorIndex: chunk text, metadata and embeddings, searched by a cosine scan
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.docqa/data/docqa.db
//
// # Thread Safety
//
// All operations are thread-safe. Readers rely on WAL snapshots; writers are
// serialised so a batch commits as one transaction.
package sqlite
