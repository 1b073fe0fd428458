// Package indextest holds the behaviour every driven.VectorIndex must share.
// Backends run it from their own tests.
package indextest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Space is the embedding space used by records built here.
const Space = "test:unit"

// Record builds a record for position pos of documentID.
func Record(documentID string, pos int, vector ...float32) driven.VectorRecord {
	return driven.VectorRecord{
		ChunkID: domain.ChunkID(documentID, pos),
		Vector:  vector,
		Text:    fmt.Sprintf("%s chunk %d", documentID, pos),
		Metadata: domain.ChunkMetadata{
			Source:         documentID + ".txt",
			DocumentID:     documentID,
			Position:       pos,
			EmbeddingSpace: Space,
		},
	}
}

// Run executes the contract against indexes built by newIndex.
func Run(t *testing.T, newIndex func(t *testing.T) driven.VectorIndex) {
	t.Run("EmptyIndexQueryReturnsEmpty", func(t *testing.T) {
		idx := newIndex(t)

		hits, err := idx.Query(context.Background(), []float32{1, 0, 0}, 5, driven.QueryFilter{})
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		ctx := context.Background()
		idx := newIndex(t)
		require.NoError(t, idx.Add(ctx, Record("doc", 0, 0.2, 0.9, 0.1)))
		require.NoError(t, idx.Add(ctx, Record("doc", 1, 0.9, 0.1, 0.0)))

		hits, err := idx.Query(ctx, []float32{0.2, 0.9, 0.1}, 1, driven.QueryFilter{EmbeddingSpace: Space})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "doc_0", hits[0].ChunkID)
		assert.Equal(t, "doc chunk 0", hits[0].Text)
		assert.Equal(t, "doc", hits[0].Metadata.DocumentID)
		assert.Equal(t, "doc.txt", hits[0].Metadata.Source)
		assert.InDelta(t, 0, hits[0].Distance, 1e-5)
	})

	t.Run("AscendingDistanceAndTopK", func(t *testing.T) {
		ctx := context.Background()
		idx := newIndex(t)
		require.NoError(t, idx.AddBatch(ctx, []driven.VectorRecord{
			Record("doc", 0, 1, 0, 0),
			Record("doc", 1, 0.7, 0.7, 0),
			Record("doc", 2, 0, 1, 0),
			Record("doc", 3, -1, 0, 0),
		}))

		hits, err := idx.Query(ctx, []float32{1, 0, 0}, 3, driven.QueryFilter{EmbeddingSpace: Space})
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, []string{"doc_0", "doc_1", "doc_2"}, chunkIDs(hits))
		for i := 1; i < len(hits); i++ {
			assert.LessOrEqual(t, hits[i-1].Distance, hits[i].Distance)
		}
		assert.InDelta(t, 1, hits[2].Distance, 1e-5)
	})

	t.Run("TopKLargerThanIndex", func(t *testing.T) {
		ctx := context.Background()
		idx := newIndex(t)
		require.NoError(t, idx.Add(ctx, Record("doc", 0, 1, 0)))

		hits, err := idx.Query(ctx, []float32{1, 0}, 10, driven.QueryFilter{EmbeddingSpace: Space})
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})

	t.Run("DuplicateChunkRejected", func(t *testing.T) {
		ctx := context.Background()
		idx := newIndex(t)
		require.NoError(t, idx.Add(ctx, Record("doc", 0, 1, 0)))

		err := idx.Add(ctx, Record("doc", 0, 0, 1))
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrAlreadyExists))
	})

	t.Run("BatchIsAllOrNothing", func(t *testing.T) {
		ctx := context.Background()
		idx := newIndex(t)
		require.NoError(t, idx.Add(ctx, Record("existing", 0, 1, 0)))

		err := idx.AddBatch(ctx, []driven.VectorRecord{
			Record("new", 0, 0, 1),
			Record("new", 1, 1, 1),
			Record("existing", 0, 1, 0),
		})
		require.Error(t, err)

		count, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		hits, err := idx.Query(ctx, []float32{0, 1}, 10, driven.QueryFilter{EmbeddingSpace: Space})
		require.NoError(t, err)
		for _, h := range hits {
			assert.NotEqual(t, "new", h.Metadata.DocumentID)
		}
	})

	t.Run("DimensionMismatchRejected", func(t *testing.T) {
		ctx := context.Background()
		idx := newIndex(t)
		require.NoError(t, idx.Add(ctx, Record("doc", 0, 1, 0, 0)))

		err := idx.AddBatch(ctx, []driven.VectorRecord{Record("doc", 1, 1, 0)})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))

		count, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("DeleteWhere", func(t *testing.T) {
		ctx := context.Background()
		idx := newIndex(t)
		require.NoError(t, idx.AddBatch(ctx, []driven.VectorRecord{
			Record("first", 0, 1, 0), Record("first", 1, 0.9, 0.1), Record("first", 2, 0.8, 0.2),
		}))
		require.NoError(t, idx.AddBatch(ctx, []driven.VectorRecord{
			Record("second", 0, 0, 1), Record("second", 1, 0.1, 0.9),
		}))

		removed, err := idx.DeleteWhere(ctx, "first")
		require.NoError(t, err)
		assert.Equal(t, 3, removed)

		count, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		hits, err := idx.Query(ctx, []float32{1, 0}, 5, driven.QueryFilter{EmbeddingSpace: Space})
		require.NoError(t, err)
		require.Len(t, hits, 2)
		for _, h := range hits {
			assert.Equal(t, "second", h.Metadata.DocumentID)
		}
	})

	t.Run("DeleteWhereNoMatchIsNoop", func(t *testing.T) {
		ctx := context.Background()
		idx := newIndex(t)
		require.NoError(t, idx.Add(ctx, Record("doc", 0, 1, 0)))

		removed, err := idx.DeleteWhere(ctx, "unknown")
		require.NoError(t, err)
		assert.Equal(t, 0, removed)

		count, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("ReinsertAfterDelete", func(t *testing.T) {
		ctx := context.Background()
		idx := newIndex(t)
		require.NoError(t, idx.Add(ctx, Record("doc", 0, 1, 0)))
		_, err := idx.DeleteWhere(ctx, "doc")
		require.NoError(t, err)

		assert.NoError(t, idx.Add(ctx, Record("doc", 0, 1, 0)))
	})

	t.Run("SpaceFilter", func(t *testing.T) {
		ctx := context.Background()
		idx := newIndex(t)
		other := Record("fallback-doc", 0, 1, 0)
		other.Metadata.EmbeddingSpace = "fallback:sha256-2"
		require.NoError(t, idx.Add(ctx, other))
		require.NoError(t, idx.Add(ctx, Record("service-doc", 0, 0, 1)))

		hits, err := idx.Query(ctx, []float32{1, 0}, 5, driven.QueryFilter{EmbeddingSpace: Space})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "service-doc", hits[0].Metadata.DocumentID)

		hits, err = idx.Query(ctx, []float32{1, 0}, 5, driven.QueryFilter{EmbeddingSpace: "unknown-space"})
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("ConcurrentReadersNeverSeePartialBatch", func(t *testing.T) {
		ctx := context.Background()
		idx := newIndex(t)
		const docs, perDoc = 8, 10

		var wg sync.WaitGroup
		for d := 0; d < docs; d++ {
			wg.Add(1)
			go func(d int) {
				defer wg.Done()
				docID := fmt.Sprintf("doc%d", d)
				batch := make([]driven.VectorRecord, perDoc)
				for p := range batch {
					batch[p] = Record(docID, p, float32(d+1), float32(p+1))
				}
				assert.NoError(t, idx.AddBatch(ctx, batch))
			}(d)
		}

		stop := make(chan struct{})
		var readers sync.WaitGroup
		for r := 0; r < 4; r++ {
			readers.Add(1)
			go func() {
				defer readers.Done()
				for {
					select {
					case <-stop:
						return
					default:
					}
					hits, err := idx.Query(ctx, []float32{1, 1}, docs*perDoc, driven.QueryFilter{EmbeddingSpace: Space})
					if !assert.NoError(t, err) {
						return
					}
					perDocument := map[string]int{}
					for _, h := range hits {
						perDocument[h.Metadata.DocumentID]++
					}
					for doc, n := range perDocument {
						assert.Equal(t, perDoc, n, "partial batch visible for %s", doc)
					}
				}
			}()
		}

		wg.Wait()
		close(stop)
		readers.Wait()

		count, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, docs*perDoc, count)
	})
}

func chunkIDs(hits []driven.VectorHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ChunkID
	}
	return out
}
