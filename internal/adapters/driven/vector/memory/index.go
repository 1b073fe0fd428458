// Package memory provides an in-process brute-force vector index.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/cosine"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index keeps every record in memory and scans them all on query.
// Batches are validated before the write lock publishes them, so readers
// see either none or all of a batch.
type Index struct {
	mu      sync.RWMutex
	records []driven.VectorRecord
	ids     map[string]struct{}

	// dims tracks the vector size per embedding space.
	dims map[string]int
}

// New creates an empty index.
func New() *Index {
	return &Index{
		ids:  make(map[string]struct{}),
		dims: make(map[string]int),
	}
}

// Name identifies the backend.
func (i *Index) Name() string {
	return "memory"
}

// Add inserts one record.
func (i *Index) Add(ctx context.Context, record driven.VectorRecord) error {
	return i.AddBatch(ctx, []driven.VectorRecord{record})
}

// AddBatch inserts all records or none.
func (i *Index) AddBatch(_ context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	seen := make(map[string]struct{}, len(records))
	dims := make(map[string]int)
	for _, r := range records {
		if r.ChunkID == "" || len(r.Vector) == 0 {
			return fmt.Errorf("%w: record needs a chunk ID and a vector", domain.ErrInvalidInput)
		}
		if _, dup := i.ids[r.ChunkID]; dup {
			return fmt.Errorf("chunk %s: %w", r.ChunkID, domain.ErrAlreadyExists)
		}
		if _, dup := seen[r.ChunkID]; dup {
			return fmt.Errorf("chunk %s repeated in batch: %w", r.ChunkID, domain.ErrAlreadyExists)
		}
		seen[r.ChunkID] = struct{}{}

		space := r.Metadata.EmbeddingSpace
		want, ok := i.dims[space]
		if !ok {
			want, ok = dims[space]
		}
		if ok && want != len(r.Vector) {
			return fmt.Errorf("%w: chunk %s has %d dimensions, space %q uses %d",
				domain.ErrDimensionMismatch, r.ChunkID, len(r.Vector), space, want)
		}
		dims[space] = len(r.Vector)
	}

	for space, d := range dims {
		i.dims[space] = d
	}
	for _, r := range records {
		r.Vector = slices.Clone(r.Vector)
		i.records = append(i.records, r)
		i.ids[r.ChunkID] = struct{}{}
	}
	return nil
}

// Query scans all records in the filter's space.
func (i *Index) Query(_ context.Context, vector []float32, topK int, filter driven.QueryFilter) ([]driven.VectorHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", domain.ErrInvalidInput)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	if filter.EmbeddingSpace != "" {
		if d, ok := i.dims[filter.EmbeddingSpace]; ok && d != len(vector) {
			return nil, fmt.Errorf("%w: query has %d dimensions, space %q uses %d",
				domain.ErrDimensionMismatch, len(vector), filter.EmbeddingSpace, d)
		}
	}

	hits := make([]driven.VectorHit, 0, len(i.records))
	for _, r := range i.records {
		if filter.EmbeddingSpace != "" && r.Metadata.EmbeddingSpace != filter.EmbeddingSpace {
			continue
		}
		if len(r.Vector) != len(vector) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:  r.ChunkID,
			Text:     r.Text,
			Metadata: r.Metadata,
			Distance: cosine.Distance(vector, r.Vector),
		})
	}

	return cosine.Rank(hits, topK), nil
}

// DeleteWhere removes every record of documentID.
func (i *Index) DeleteWhere(_ context.Context, documentID string) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	kept := i.records[:0]
	removed := 0
	for _, r := range i.records {
		if r.Metadata.DocumentID == documentID {
			delete(i.ids, r.ChunkID)
			removed++
			continue
		}
		kept = append(kept, r)
	}
	clear(i.records[len(kept):])
	i.records = kept

	if len(i.records) == 0 {
		clear(i.dims)
	}
	return removed, nil
}

// Count returns the number of records.
func (i *Index) Count(_ context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.records), nil
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}
