package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/metrics"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService owns the document lifecycle across the chunker, the
// embedder, the vector index and the document registry.
//
// A document moves absent -> ingesting -> indexed -> absent. Chunks are
// indexed before the document is registered, so a registered document always
// has its chunks in the index.
type RetrievalService struct {
	chunker  driven.Chunker
	embedder driven.Embedder
	index    driven.VectorIndex
	registry driven.DocumentStore
	metrics  *metrics.Metrics
	locks    *keyedMutex
	newID    func() string
	now      func() time.Time
}

// RetrievalOption configures a RetrievalService.
type RetrievalOption func(*RetrievalService)

// WithRetrievalMetrics records ingest, query and delete metrics.
func WithRetrievalMetrics(m *metrics.Metrics) RetrievalOption {
	return func(s *RetrievalService) {
		s.metrics = m
	}
}

// WithIDGenerator replaces the UUID generator used for new documents.
func WithIDGenerator(fn func() string) RetrievalOption {
	return func(s *RetrievalService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock replaces the clock used to stamp uploads.
func WithClock(fn func() time.Time) RetrievalOption {
	return func(s *RetrievalService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	chunker driven.Chunker,
	embedder driven.Embedder,
	index driven.VectorIndex,
	registry driven.DocumentStore,
	opts ...RetrievalOption,
) *RetrievalService {
	s := &RetrievalService{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		registry: registry,
		locks:    newKeyedMutex(),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest chunks, embeds and indexes rawText as a new document.
func (s *RetrievalService) Ingest(ctx context.Context, rawText, filename string) (*domain.Document, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("%w: no text content in %s", domain.ErrProcessing, filename)
	}

	start := time.Now()
	docID := s.newID()
	unlock := s.locks.Lock(docID)
	defer unlock()

	logger.Section("Ingest")
	logger.Debug("Document %s (%s): %d characters", docID, filename, len(rawText))

	chunks, err := s.chunker.Chunk(ctx, docID, filename, rawText)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk %s: %w", domain.ErrProcessing, filename, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks produced from %s", domain.ErrProcessing, filename)
	}

	texts := make([]string, len(chunks))
	characters := 0
	for i, c := range chunks {
		texts[i] = c.Content
		characters += utf8.RuneCountInString(c.Content)
	}
	embeddings := s.embedder.EmbedBatch(ctx, texts)
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: embedded %d of %d chunks", domain.ErrProcessing, len(embeddings), len(chunks))
	}
	space := embeddings[0].Space
	if embeddings[0].IsFallback() {
		logger.Warn("Document %s embedded with fallback vectors (%s)", docID, space)
	}

	records := make([]driven.VectorRecord, len(chunks))
	chunkIDs := make([]string, len(chunks))
	for i, c := range chunks {
		meta := c.Metadata
		meta.EmbeddingSpace = embeddings[i].Space
		records[i] = driven.VectorRecord{
			ChunkID:  c.ID,
			Vector:   embeddings[i].Vector,
			Text:     c.Content,
			Metadata: meta,
		}
		chunkIDs[i] = c.ID
	}

	if err := s.index.AddBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("index %s: %w", filename, err)
	}

	doc := &domain.Document{
		ID:             docID,
		Filename:       filename,
		UploadedAt:     s.now().UTC(),
		ChunkIDs:       chunkIDs,
		ChunkCount:     len(chunks),
		CharacterCount: characters,
		EmbeddingSpace: space,
	}
	if err := s.registry.SaveDocument(ctx, doc); err != nil {
		// Roll back so the index never holds chunks of an unregistered document.
		// The caller's context may be the reason SaveDocument failed.
		if _, rbErr := s.index.DeleteWhere(context.WithoutCancel(ctx), docID); rbErr != nil {
			logger.Warn("Rollback of %s failed: %v", docID, rbErr)
		}
		return nil, fmt.Errorf("register %s: %w", filename, err)
	}

	s.metrics.ObserveIngest(time.Since(start))
	s.refreshChunkGauge(ctx)
	logger.Info("Ingested %s as %s: %d chunks in %s", filename, docID, len(chunks), space)
	return doc, nil
}

// AnswerQuery returns the topK chunks nearest to question.
// Only chunks embedded in the same space as the question are considered.
func (s *RetrievalService) AnswerQuery(ctx context.Context, question string, topK int) ([]domain.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	start := time.Now()
	defer func() { s.metrics.ObserveQuery(time.Since(start)) }()

	emb := s.embedder.Embed(ctx, question)
	logger.Debug("Query embedded in %s (%s)", emb.Space, emb.Provenance)

	hits, err := s.index.Query(ctx, emb.Vector, topK, driven.QueryFilter{EmbeddingSpace: emb.Space})
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: no relevant documents found", domain.ErrNotFound)
	}

	results := make([]domain.QueryResult, len(hits))
	for i, h := range hits {
		results[i] = domain.QueryResult{
			ChunkID:  h.ChunkID,
			Text:     h.Text,
			Metadata: h.Metadata,
			Distance: h.Distance,
		}
	}
	return results, nil
}

// Delete removes a document and all its chunks.
func (s *RetrievalService) Delete(ctx context.Context, documentID string) error {
	unlock := s.locks.Lock(documentID)
	defer unlock()

	doc, err := s.registry.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	// Unregister first so a registered document never outlives its chunks.
	if err := s.registry.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	removed, err := s.index.DeleteWhere(ctx, documentID)
	if err != nil {
		if rbErr := s.registry.SaveDocument(context.WithoutCancel(ctx), doc); rbErr != nil {
			logger.Error("Restoring %s after failed chunk delete: %v", documentID, rbErr)
		}
		return fmt.Errorf("delete chunks of %s: %w", documentID, err)
	}

	s.metrics.ObserveDelete()
	s.refreshChunkGauge(ctx)
	logger.Info("Deleted document %s (%d chunks)", documentID, removed)
	return nil
}

// Get retrieves a document by ID.
func (s *RetrievalService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.registry.GetDocument(ctx, documentID)
}

// List returns all documents, oldest first.
func (s *RetrievalService) List(ctx context.Context) ([]domain.Document, error) {
	return s.registry.ListDocuments(ctx)
}

// Stats summarises the index contents.
func (s *RetrievalService) Stats(ctx context.Context) (*domain.IndexStats, error) {
	chunks, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	docs, err := s.registry.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	stats := &domain.IndexStats{
		TotalChunks:    chunks,
		TotalDocuments: len(docs),
		Backend:        s.index.Name(),
	}
	registered := 0
	for _, d := range docs {
		stats.TotalCharacters += d.CharacterCount
		registered += d.ChunkCount
	}
	if registered > 0 {
		stats.AverageChunk = math.Round(float64(stats.TotalCharacters)/float64(registered)*100) / 100
	}
	return stats, nil
}

func (s *RetrievalService) refreshChunkGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if n, err := s.index.Count(ctx); err == nil {
		s.metrics.SetIndexChunks(n)
	}
}
