// Package chromem provides a vector index backed by chromem-go, an embedded
// vector database with optional on-disk persistence.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/cosine"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "documents"

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// errPrecomputed is returned if chromem ever asks us to embed text.
var errPrecomputed = errors.New("chromem: embeddings must be precomputed")

// Config holds configuration for the chromem index.
type Config struct {
	// Path is the persistence directory. Empty keeps the index in memory.
	Path string

	// Collection is the collection name (default: documents).
	Collection string

	// Compress gzips persisted documents.
	Compress bool
}

// Index wraps a chromem collection.
//
// chromem adds the documents of a batch one by one, so the index serialises
// writers against readers itself: AddBatch holds the write lock for the
// whole batch and Query holds the read lock.
type Index struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection

	// dims caches the vector size per embedding space.
	dims map[string]int
}

// New opens (or creates) the index.
func New(cfg Config) (*Index, error) {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(cfg.Path, 0700); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(
		cfg.Collection,
		map[string]string{"hnsw:space": "cosine"},
		func(context.Context, string) ([]float32, error) { return nil, errPrecomputed },
	)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", cfg.Collection, err)
	}

	return &Index{
		db:         db,
		collection: collection,
		dims:       make(map[string]int),
	}, nil
}

// Name identifies the backend.
func (i *Index) Name() string {
	return "chromem"
}

// Add inserts one record.
func (i *Index) Add(ctx context.Context, record driven.VectorRecord) error {
	return i.AddBatch(ctx, []driven.VectorRecord{record})
}

// AddBatch inserts all records or none. A failure part way through removes
// whatever chromem already stored before the lock is released.
func (i *Index) AddBatch(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	ids := make([]string, len(records))
	vectors := make([][]float32, len(records))
	metadatas := make([]map[string]string, len(records))
	contents := make([]string, len(records))
	seen := make(map[string]struct{}, len(records))
	batchDims := make(map[string]int)

	for n, r := range records {
		if r.ChunkID == "" || len(r.Vector) == 0 {
			return fmt.Errorf("%w: record needs a chunk ID and a vector", domain.ErrInvalidInput)
		}
		if _, dup := seen[r.ChunkID]; dup {
			return fmt.Errorf("chunk %s repeated in batch: %w", r.ChunkID, domain.ErrAlreadyExists)
		}
		seen[r.ChunkID] = struct{}{}
		if _, err := i.collection.GetByID(ctx, r.ChunkID); err == nil {
			return fmt.Errorf("chunk %s: %w", r.ChunkID, domain.ErrAlreadyExists)
		}

		space := r.Metadata.EmbeddingSpace
		want, ok := batchDims[space]
		if !ok {
			var err error
			want, ok, err = i.spaceDims(ctx, space, r.Vector)
			if err != nil {
				return err
			}
		}
		if ok && want != len(r.Vector) {
			return fmt.Errorf("%w: chunk %s has %d dimensions, space %q uses %d",
				domain.ErrDimensionMismatch, r.ChunkID, len(r.Vector), space, want)
		}
		batchDims[space] = len(r.Vector)

		ids[n] = r.ChunkID
		vectors[n] = r.Vector
		metadatas[n] = r.Metadata.Flatten()
		contents[n] = r.Text
	}

	if err := i.collection.Add(ctx, ids, vectors, metadatas, contents); err != nil {
		// Use a fresh context: the caller's may be what failed.
		if rbErr := i.collection.Delete(context.Background(), nil, nil, ids...); rbErr != nil {
			return errors.Join(fmt.Errorf("chromem add: %w", err), fmt.Errorf("chromem rollback: %w", rbErr))
		}
		return fmt.Errorf("chromem add: %w", err)
	}

	for space, d := range batchDims {
		i.dims[space] = d
	}
	return nil
}

// spaceDims returns the vector size already used by space. When the index
// was reopened from disk the size is unknown, so it probes the collection
// with the incoming vector: chromem refuses to compare vectors of different
// length.
func (i *Index) spaceDims(ctx context.Context, space string, probe []float32) (int, bool, error) {
	if d, ok := i.dims[space]; ok {
		return d, true, nil
	}
	if i.collection.Count() == 0 {
		return 0, false, nil
	}

	results, err := i.collection.QueryEmbedding(ctx, probe, 1, spaceWhere(space), nil)
	if err != nil {
		if isLengthError(err) {
			return 0, false, fmt.Errorf("%w: space %q holds vectors of another size than %d",
				domain.ErrDimensionMismatch, space, len(probe))
		}
		return 0, false, fmt.Errorf("chromem probe: %w", err)
	}
	if len(results) == 0 {
		return 0, false, nil
	}

	d := len(results[0].Embedding)
	i.dims[space] = d
	return d, true, nil
}

// Query returns the topK nearest records in the filter's space.
func (i *Index) Query(ctx context.Context, vector []float32, topK int, filter driven.QueryFilter) ([]driven.VectorHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive", domain.ErrInvalidInput)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	count := i.collection.Count()
	if count == 0 {
		return []driven.VectorHit{}, nil
	}

	results, err := i.collection.QueryEmbedding(ctx, vector, min(topK, count), spaceWhere(filter.EmbeddingSpace), nil)
	if err != nil {
		if isLengthError(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrDimensionMismatch, err)
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, driven.VectorHit{
			ChunkID:  r.ID,
			Text:     r.Content,
			Metadata: domain.ParseChunkMetadata(r.Metadata),
			Distance: 1 - float64(r.Similarity),
		})
	}
	return cosine.Rank(hits, topK), nil
}

// DeleteWhere removes every record of documentID.
func (i *Index) DeleteWhere(ctx context.Context, documentID string) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	before := i.collection.Count()
	if before == 0 {
		return 0, nil
	}

	where := map[string]string{domain.MetadataDocumentID: documentID}
	if err := i.collection.Delete(ctx, where, nil); err != nil {
		return 0, fmt.Errorf("chromem delete: %w", err)
	}

	after := i.collection.Count()
	if after == 0 {
		clear(i.dims)
	}
	return before - after, nil
}

// Count returns the number of records.
func (i *Index) Count(_ context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.collection.Count(), nil
}

// Close releases resources. Persistent databases write through, so there is
// nothing to flush.
func (i *Index) Close() error {
	return nil
}

func spaceWhere(space string) map[string]string {
	if space == "" {
		return nil
	}
	return map[string]string{domain.MetadataEmbeddingSpace: space}
}

func isLengthError(err error) bool {
	return strings.Contains(err.Error(), "same length")
}
