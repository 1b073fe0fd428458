package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/hashed"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	vectormemory "github.com/custodia-labs/docqa/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

const testAnswer = "The capital of France is Paris [Source 1]."

// stubLLM answers every chat with a fixed reply.
type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return s.reply, s.err
}

func (s *stubLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return s.reply, s.err
}

func (s *stubLLM) ModelName() string { return "stub-llm" }

func (s *stubLLM) Ping(_ context.Context) error { return nil }

func (s *stubLLM) Close() error { return nil }

// builtinPrompts serves the compiled-in prompt templates.
type builtinPrompts struct{}

func (builtinPrompts) Load(name string) (string, error) {
	p, ok := file.DefaultPrompt(name)
	if !ok {
		return "", errors.New("unknown prompt " + name)
	}
	return p, nil
}

func (builtinPrompts) Reload() {}

// stubValidator records validation calls instead of pinging providers.
type stubValidator struct {
	err       error
	embedding *domain.EmbeddingSettings
	llm       *domain.LLMSettings
}

func (v *stubValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	v.embedding = cfg
	return v.err
}

func (v *stubValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	v.llm = cfg
	return v.err
}

// setupTestServices wires in-memory services and returns a restore func.
func setupTestServices() func() {
	oldRetrieval, oldUploads, oldQA := retrievalService, uploadService, qaService
	oldLoad, oldSettings, oldStatus := loadServices, currentSettings, statusLine

	retrieval := services.NewRetrievalService(
		chunker.New(chunker.WithChunkSize(200), chunker.WithOverlap(20)),
		hashed.New(16),
		vectormemory.New(),
		memory.NewDocumentStore(),
	)
	retrievalService = retrieval
	uploadService = services.NewUploadService(normalisers.DefaultRegistry(), retrieval)
	qaService = services.NewQAService(retrieval, &stubLLM{reply: testAnswer}, builtinPrompts{}, driven.ChatOptions{})
	currentSettings = domain.DefaultSettings()
	statusLine = "embeddings: test"
	loadServices = func(*cobra.Command) error { return nil }

	return func() {
		retrievalService, uploadService, qaService = oldRetrieval, oldUploads, oldQA
		loadServices, currentSettings, statusLine = oldLoad, oldSettings, oldStatus
	}
}

// seedDocument ingests text under filename through the test services.
func seedDocument(t *testing.T, filename, text string) *domain.Document {
	t.Helper()
	doc, err := retrievalService.Ingest(context.Background(), text, filename)
	require.NoError(t, err)
	return doc
}
