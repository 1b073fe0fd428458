package chromem

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/indextest"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestIndex_Contract(t *testing.T) {
	indextest.Run(t, func(t *testing.T) driven.VectorIndex {
		idx, err := New(Config{})
		require.NoError(t, err)
		return idx
	})
}

func TestIndex_PersistentContract(t *testing.T) {
	indextest.Run(t, func(t *testing.T) driven.VectorIndex {
		idx, err := New(Config{Path: filepath.Join(t.TempDir(), "index")})
		require.NoError(t, err)
		return idx
	})
}

func TestIndex_Name(t *testing.T) {
	idx, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, "chromem", idx.Name())
}

func TestIndex_ReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index")

	idx, err := New(Config{Path: path, Collection: "docs"})
	require.NoError(t, err)
	require.NoError(t, idx.AddBatch(ctx, []driven.VectorRecord{
		indextest.Record("doc", 0, 1, 0, 0),
		indextest.Record("doc", 1, 0, 1, 0),
	}))
	require.NoError(t, idx.Close())

	reopened, err := New(Config{Path: path, Collection: "docs"})
	require.NoError(t, err)

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	hits, err := reopened.Query(ctx, []float32{0, 1, 0}, 1, driven.QueryFilter{EmbeddingSpace: indextest.Space})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc_1", hits[0].ChunkID)
	assert.Equal(t, 1, hits[0].Metadata.Position)

	// Dimensions are recovered by probing after a restart.
	err = reopened.Add(ctx, indextest.Record("other", 0, 1, 0))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndex_MetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	idx, err := New(Config{})
	require.NoError(t, err)

	rec := indextest.Record("doc", 4, 1, 1)
	rec.Metadata.TotalChunks = 9
	rec.Metadata.Extra = map[string]string{"lang": "en"}
	require.NoError(t, idx.Add(ctx, rec))

	hits, err := idx.Query(ctx, []float32{1, 1}, 1, driven.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, rec.Metadata, hits[0].Metadata)
}
