package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func sampleResults() []domain.QueryResult {
	return []domain.QueryResult{
		{
			ChunkID: "doc-1_0",
			Text:    "Paris is the capital of France.",
			Metadata: domain.ChunkMetadata{
				Source:      "geo.txt",
				DocumentID:  "doc-1",
				Position:    0,
				TotalChunks: 2,
			},
			Distance: 0.12,
		},
	}
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns chunks", func(t *testing.T) {
		retrieval := &mockRetrievalService{results: sampleResults()}
		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, QuestionInput{Question: "capital?", TopK: 5})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "doc-1", output.Results[0].DocumentID)
		assert.Equal(t, "geo.txt", output.Results[0].Source)
		assert.Equal(t, "Paris is the capital of France.", output.Results[0].Text)
		assert.InDelta(t, 0.12, output.Results[0].Distance, 1e-9)
		assert.Equal(t, 5, retrieval.lastTopK)
	})

	t.Run("default top_k is 3", func(t *testing.T) {
		retrieval := &mockRetrievalService{}
		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, QuestionInput{Question: "q"})
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultTopK, retrieval.lastTopK)
	})

	t.Run("no documents is an empty result", func(t *testing.T) {
		retrieval := &mockRetrievalService{err: domain.ErrNotFound}
		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, QuestionInput{Question: "q"})
		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Empty(t, output.Results)
	})

	t.Run("returns error on retrieval failure", func(t *testing.T) {
		retrieval := &mockRetrievalService{err: errors.New("index offline")}
		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, QuestionInput{Question: "q"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index offline")
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		qa := &mockQAService{answer: &domain.Answer{
			Question:     "capital?",
			Answer:       "Paris.",
			Sources:      sampleResults(),
			ResponseTime: 1234 * time.Millisecond,
		}}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, QA: qa})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, QuestionInput{Question: "capital?"})

		require.NoError(t, err)
		assert.Equal(t, "Paris.", output.Answer)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "geo.txt", output.Sources[0].Source)
		assert.InDelta(t, 1.23, output.ResponseTime, 1e-9)
	})

	t.Run("propagates not found", func(t *testing.T) {
		qa := &mockQAService{err: domain.ErrNotFound}
		server, err := NewServer(&Ports{Retrieval: &mockRetrievalService{}, QA: qa})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, QuestionInput{Question: "q"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServer_handleListDocuments(t *testing.T) {
	ctx := context.Background()
	uploaded := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("returns documents", func(t *testing.T) {
		retrieval := &mockRetrievalService{documents: []domain.Document{
			{ID: "doc-1", Filename: "a.txt", UploadedAt: uploaded, ChunkCount: 2},
			{ID: "doc-2", Filename: "b.pdf", UploadedAt: uploaded, ChunkCount: 7},
		}}
		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		_, output, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "b.pdf", output.Documents[1].Filename)
		assert.Equal(t, "2025-03-01T12:00:00Z", output.Documents[0].UploadDate)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		retrieval := &mockRetrievalService{err: errors.New("registry locked")}
		server, err := NewServer(&Ports{Retrieval: retrieval})
		require.NoError(t, err)

		_, _, err = server.handleListDocuments(ctx, nil, ListDocumentsInput{})
		require.Error(t, err)
	})
}
