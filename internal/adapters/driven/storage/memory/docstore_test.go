package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := &domain.Document{
		ID:         "doc-1",
		Filename:   "notes.txt",
		ChunkIDs:   []string{"doc-1_0"},
		ChunkCount: 1,
	}
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", got.Filename)
	assert.Equal(t, []string{"doc-1_0"}, got.ChunkIDs)
	assert.False(t, got.UploadedAt.IsZero())
}

func TestDocumentStore_ReturnsCopies(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	ids := []string{"doc-1_0"}
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc-1", ChunkIDs: ids}))
	ids[0] = "mutated"

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	got.ChunkIDs[0] = "also mutated"

	again, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1_0"}, again.ChunkIDs)
}

func TestDocumentStore_GetDocument_NotFound(t *testing.T) {
	_, err := NewDocumentStore().GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_DeleteDocument(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "doc-1"}))
	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.DeleteDocument(ctx, "doc-1"), domain.ErrNotFound)
}

func TestDocumentStore_ListDocuments_OldestFirst(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "late", UploadedAt: base.Add(time.Hour)}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "tie-1", UploadedAt: base}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "tie-2", UploadedAt: base}))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "tie-1", docs[0].ID)
	assert.Equal(t, "tie-2", docs[1].ID)
	assert.Equal(t, "late", docs[2].ID)
}

func TestDocumentStore_ConcurrentAccess(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := domain.ChunkID("doc", i)
			assert.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: id}))
			_, err := store.ListDocuments(ctx)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 50)
}
