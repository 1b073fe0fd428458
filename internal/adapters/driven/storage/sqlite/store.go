package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/cosine"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Store is a SQLite database that provides the document registry and a
// vector index through wrapper types.
type Store struct {
	db   *sql.DB
	path string

	// writeMu serialises write transactions. SQLite allows one writer and
	// a deferred transaction that upgrades its lock fails fast with BUSY.
	writeMu sync.Mutex
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docqa/data/docqa.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docqa", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "docqa.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// VectorIndex returns a VectorIndex interface backed by this store.
// Closing the index leaves the store open.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_init.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or replaces a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	chunkIDs := doc.ChunkIDs
	if chunkIDs == nil {
		chunkIDs = []string{}
	}
	idsJSON, err := json.Marshal(chunkIDs)
	if err != nil {
		return fmt.Errorf("marshalling chunk ids: %w", err)
	}

	uploadedAt := doc.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}

	s.store.writeMu.Lock()
	defer s.store.writeMu.Unlock()

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, uploaded_at, chunk_ids, chunk_count, character_count, embedding_space)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			uploaded_at = excluded.uploaded_at,
			chunk_ids = excluded.chunk_ids,
			chunk_count = excluded.chunk_count,
			character_count = excluded.character_count,
			embedding_space = excluded.embedding_space
	`, doc.ID, doc.Filename, uploadedAt.UTC(), string(idsJSON), doc.ChunkCount, doc.CharacterCount, doc.EmbeddingSpace)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, filename, uploaded_at, chunk_ids, chunk_count, character_count, embedding_space
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// DeleteDocument removes a document.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	s.store.writeMu.Lock()
	defer s.store.writeMu.Unlock()

	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDocuments returns all documents, oldest first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, filename, uploaded_at, chunk_ids, chunk_count, character_count, embedding_space
		FROM documents ORDER BY uploaded_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// ==================== Vector Index ====================

// vectorIndex implements driven.VectorIndex with a brute-force cosine scan.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Name identifies the backend.
func (v *vectorIndex) Name() string {
	return "sqlite"
}

// Add inserts one record.
func (v *vectorIndex) Add(ctx context.Context, record driven.VectorRecord) error {
	return v.AddBatch(ctx, []driven.VectorRecord{record})
}

// AddBatch inserts all records in one transaction.
func (v *vectorIndex) AddBatch(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	v.store.writeMu.Lock()
	defer v.store.writeMu.Unlock()

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	dims := make(map[string]int)
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ChunkID == "" || len(r.Vector) == 0 {
			return fmt.Errorf("%w: record needs a chunk ID and a vector", domain.ErrInvalidInput)
		}
		if _, dup := seen[r.ChunkID]; dup {
			return fmt.Errorf("chunk %s repeated in batch: %w", r.ChunkID, domain.ErrAlreadyExists)
		}
		seen[r.ChunkID] = struct{}{}

		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM chunks WHERE id = ?", r.ChunkID).Scan(&exists)
		if err == nil {
			return fmt.Errorf("chunk %s: %w", r.ChunkID, domain.ErrAlreadyExists)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking chunk %s: %w", r.ChunkID, err)
		}

		space := r.Metadata.EmbeddingSpace
		want, ok := dims[space]
		if !ok {
			want, ok, err = spaceDims(ctx, tx, space)
			if err != nil {
				return err
			}
		}
		if ok && want != len(r.Vector) {
			return fmt.Errorf("%w: chunk %s has %d dimensions, space %q uses %d",
				domain.ErrDimensionMismatch, r.ChunkID, len(r.Vector), space, want)
		}
		dims[space] = len(r.Vector)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, position, space, dims, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		metadataJSON, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, r.ChunkID, r.Metadata.DocumentID, r.Text,
			r.Metadata.Position, r.Metadata.EmbeddingSpace, len(r.Vector),
			float32SliceToBytes(r.Vector), string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query scans every chunk in the filter's space.
func (v *vectorIndex) Query(
	ctx context.Context, vector []float32, topK int, filter driven.QueryFilter,
) ([]driven.VectorHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", domain.ErrInvalidInput)
	}

	// One read transaction gives the scan a single snapshot.
	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var rows *sql.Rows
	if filter.EmbeddingSpace != "" {
		want, ok, err := spaceDims(ctx, tx, filter.EmbeddingSpace)
		if err != nil {
			return nil, err
		}
		if ok && want != len(vector) {
			return nil, fmt.Errorf("%w: query has %d dimensions, space %q uses %d",
				domain.ErrDimensionMismatch, len(vector), filter.EmbeddingSpace, want)
		}
		rows, err = tx.QueryContext(ctx, `
			SELECT id, content, embedding, metadata FROM chunks
			WHERE space = ? AND dims = ?
		`, filter.EmbeddingSpace, len(vector))
		if err != nil {
			return nil, fmt.Errorf("querying chunks: %w", err)
		}
	} else {
		rows, err = tx.QueryContext(ctx, `
			SELECT id, content, embedding, metadata FROM chunks WHERE dims = ?
		`, len(vector))
		if err != nil {
			return nil, fmt.Errorf("querying chunks: %w", err)
		}
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var (
			hit          driven.VectorHit
			blob         []byte
			metadataJSON string
		)
		if err := rows.Scan(&hit.ChunkID, &hit.Text, &blob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &hit.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
		hit.Distance = cosine.Distance(vector, bytesToFloat32Slice(blob))
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return cosine.Rank(hits, topK), nil
}

// DeleteWhere removes every chunk of documentID.
func (v *vectorIndex) DeleteWhere(ctx context.Context, documentID string) (int, error) {
	v.store.writeMu.Lock()
	defer v.store.writeMu.Unlock()

	res, err := v.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	return int(n), nil
}

// Count returns the number of indexed chunks.
func (v *vectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the database.
func (v *vectorIndex) Close() error {
	return nil
}

// ==================== Helper Functions ====================

// spaceDims returns the vector size already used by space, if any.
func spaceDims(ctx context.Context, tx *sql.Tx, space string) (int, bool, error) {
	var dims int
	err := tx.QueryRowContext(ctx, "SELECT dims FROM chunks WHERE space = ? LIMIT 1", space).Scan(&dims)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("reading dimensions of space %q: %w", space, err)
	}
	return dims, true, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a single document row.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var (
		doc     domain.Document
		idsJSON string
	)
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.UploadedAt, &idsJSON,
		&doc.ChunkCount, &doc.CharacterCount, &doc.EmbeddingSpace); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	if err := json.Unmarshal([]byte(idsJSON), &doc.ChunkIDs); err != nil {
		return nil, fmt.Errorf("unmarshalling chunk ids: %w", err)
	}
	return &doc, nil
}
