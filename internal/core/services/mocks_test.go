package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/hashed"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	vectormemory "github.com/custodia-labs/docqa/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

const testDims = 16

// testRetrieval wires a retrieval service over in-memory adapters.
type testRetrieval struct {
	service  *RetrievalService
	index    *vectormemory.Index
	registry *memory.DocumentStore
	embedder *hashed.Embedder
}

func newTestRetrieval(opts ...RetrievalOption) *testRetrieval {
	tr := &testRetrieval{
		index:    vectormemory.New(),
		registry: memory.NewDocumentStore(),
		embedder: hashed.New(testDims),
	}
	tr.service = NewRetrievalService(
		chunker.New(chunker.WithChunkSize(40), chunker.WithOverlap(8)),
		tr.embedder,
		tr.index,
		tr.registry,
		opts...,
	)
	return tr
}

// failingRegistry wraps a document store and fails SaveDocument or DeleteDocument.
type failingRegistry struct {
	*memory.DocumentStore
	saveErr   error
	deleteErr error
}

func (f *failingRegistry) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.DocumentStore.SaveDocument(ctx, doc)
}

func (f *failingRegistry) DeleteDocument(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.DocumentStore.DeleteDocument(ctx, id)
}

// failingIndex wraps an index and fails AddBatch or DeleteWhere.
type failingIndex struct {
	*vectormemory.Index
	addErr    error
	deleteErr error
}

func (f *failingIndex) AddBatch(ctx context.Context, records []driven.VectorRecord) error {
	if f.addErr != nil {
		return f.addErr
	}
	return f.Index.AddBatch(ctx, records)
}

func (f *failingIndex) DeleteWhere(ctx context.Context, documentID string) (int, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.Index.DeleteWhere(ctx, documentID)
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	mu       sync.Mutex
	response string
	err      error
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (m *mockLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return m.response, m.err
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = messages
	m.opts = opts
	return m.response, m.err
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

// mockPrompts implements driven.PromptStore for testing.
type mockPrompts struct {
	prompts map[string]string
}

func newMockPrompts() *mockPrompts {
	return &mockPrompts{prompts: map[string]string{
		driven.PromptAnswerSystem: "system prompt",
		driven.PromptAnswerUser:   "CONTEXT:\n%s\nQUESTION: %s",
	}}
}

func (m *mockPrompts) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("prompt not found: " + name)
	}
	return p, nil
}

func (m *mockPrompts) Reload() {}

// mockRetrieval implements driving.RetrievalService for testing.
type mockRetrieval struct {
	results   []domain.QueryResult
	queryErr  error
	ingestErr error
	ingested  []string
}

func (m *mockRetrieval) Ingest(_ context.Context, rawText, filename string) (*domain.Document, error) {
	if m.ingestErr != nil {
		return nil, m.ingestErr
	}
	m.ingested = append(m.ingested, rawText)
	return &domain.Document{ID: "doc-1", Filename: filename, ChunkCount: 2}, nil
}

func (m *mockRetrieval) AnswerQuery(_ context.Context, _ string, _ int) ([]domain.QueryResult, error) {
	return m.results, m.queryErr
}

func (m *mockRetrieval) Delete(_ context.Context, _ string) error { return nil }

func (m *mockRetrieval) Get(_ context.Context, _ string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockRetrieval) List(_ context.Context) ([]domain.Document, error) {
	return []domain.Document{}, nil
}

func (m *mockRetrieval) Stats(_ context.Context) (*domain.IndexStats, error) {
	return &domain.IndexStats{}, nil
}
