package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/indextest"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

// ==================== Store Creation Tests ====================

func TestNewStore_Success(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "docqa.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	var version int
	err := store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	for _, table := range []string{"documents", "chunks"} {
		var name string
		err := store.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var rows int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&rows))
	assert.Equal(t, 2, rows)
}

// ==================== Document Store Tests ====================

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	uploaded := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := &domain.Document{
		ID:             "doc-1",
		Filename:       "guide.pdf",
		UploadedAt:     uploaded,
		ChunkIDs:       []string{"doc-1_0", "doc-1_1"},
		ChunkCount:     2,
		CharacterCount: 812,
		EmbeddingSpace: "openai:grok-1",
	}
	require.NoError(t, docs.SaveDocument(ctx, doc))

	got, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "guide.pdf", got.Filename)
	assert.True(t, uploaded.Equal(got.UploadedAt))
	assert.Equal(t, []string{"doc-1_0", "doc-1_1"}, got.ChunkIDs)
	assert.Equal(t, 2, got.ChunkCount)
	assert.Equal(t, 812, got.CharacterCount)
	assert.Equal(t, "openai:grok-1", got.EmbeddingSpace)
}

func TestDocumentStore_SaveReplaces(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{ID: "doc-1", Filename: "old.txt"}))
	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{ID: "doc-1", Filename: "new.txt", ChunkCount: 3}))

	got, err := docs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "new.txt", got.Filename)
	assert.Equal(t, 3, got.ChunkCount)
	assert.Empty(t, got.ChunkIDs)
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.DocumentStore().GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_DeleteDocument(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{ID: "doc-1", Filename: "a.txt"}))
	require.NoError(t, docs.DeleteDocument(ctx, "doc-1"))

	_, err := docs.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, docs.DeleteDocument(ctx, "doc-1"), domain.ErrNotFound)
}

func TestDocumentStore_ListDocuments_OldestFirst(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{ID: "c", Filename: "c.txt", UploadedAt: base.Add(2 * time.Hour)}))
	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{ID: "a", Filename: "a.txt", UploadedAt: base}))
	require.NoError(t, docs.SaveDocument(ctx, &domain.Document{ID: "b", Filename: "b.txt", UploadedAt: base.Add(time.Hour)}))

	list, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, "c", list[2].ID)
}

func TestDocumentStore_ListDocuments_Empty(t *testing.T) {
	store := setupTestStore(t)

	list, err := store.DocumentStore().ListDocuments(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

// ==================== Vector Index Tests ====================

func TestVectorIndex_Contract(t *testing.T) {
	indextest.Run(t, func(t *testing.T) driven.VectorIndex {
		return setupTestStore(t).VectorIndex()
	})
}

func TestVectorIndex_Name(t *testing.T) {
	assert.Equal(t, "sqlite", setupTestStore(t).VectorIndex().Name())
}

func TestVectorIndex_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.VectorIndex().AddBatch(ctx, []driven.VectorRecord{
		indextest.Record("doc", 0, 1, 0, 0),
		indextest.Record("doc", 1, 0, 1, 0),
	}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	idx := reopened.VectorIndex()
	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	hits, err := idx.Query(ctx, []float32{0, 1, 0}, 1, driven.QueryFilter{EmbeddingSpace: indextest.Space})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc_1", hits[0].ChunkID)
	assert.Equal(t, 1, hits[0].Metadata.Position)
	assert.Equal(t, "doc.txt", hits[0].Metadata.Source)
}

func TestVectorIndex_ExtraMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	idx := setupTestStore(t).VectorIndex()

	rec := indextest.Record("doc", 0, 1, 0)
	rec.Metadata.Extra = map[string]string{"format": "pdf"}
	require.NoError(t, idx.Add(ctx, rec))

	hits, err := idx.Query(ctx, []float32{1, 0}, 1, driven.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "pdf", hits[0].Metadata.Extra["format"])
}

func TestVectorIndex_CloseLeavesStoreOpen(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.VectorIndex().Close())

	_, err := store.DocumentStore().ListDocuments(context.Background())
	assert.NoError(t, err)
}

// ==================== Helper Function Tests ====================

func TestFloat32Conversion(t *testing.T) {
	tests := []struct {
		name  string
		input []float32
	}{
		{name: "nil", input: nil},
		{name: "single", input: []float32{1.5}},
		{name: "mixed", input: []float32{-0.25, 0, 3.75, 1e-7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bytesToFloat32Slice(float32SliceToBytes(tt.input))
			assert.Equal(t, tt.input, got)
		})
	}
}
