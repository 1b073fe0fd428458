package mcp

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results   []domain.QueryResult
	documents []domain.Document
	document  *domain.Document
	err       error

	lastTopK int
}

func (m *mockRetrievalService) Ingest(_ context.Context, _, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockRetrievalService) AnswerQuery(_ context.Context, _ string, topK int) ([]domain.QueryResult, error) {
	m.lastTopK = topK
	return m.results, m.err
}

func (m *mockRetrievalService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockRetrievalService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockRetrievalService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockRetrievalService) Stats(_ context.Context) (*domain.IndexStats, error) {
	return &domain.IndexStats{}, m.err
}

// mockQAService is a mock implementation of driving.QAService.
type mockQAService struct {
	answer *domain.Answer
	err    error
}

func (m *mockQAService) Ask(_ context.Context, _ string, _ int) (*domain.Answer, error) {
	return m.answer, m.err
}
