package tui

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// MockQAService implements driving.QAService for testing.
type MockQAService struct {
	AskFunc func(ctx context.Context, question string, topK int) (*domain.Answer, error)
}

func (m *MockQAService) Ask(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	if m.AskFunc != nil {
		return m.AskFunc(ctx, question, topK)
	}
	return &domain.Answer{Question: question, Answer: "42"}, nil
}

// MockRetrievalService implements driving.RetrievalService for testing.
type MockRetrievalService struct {
	Documents []domain.Document
	DeleteErr error
	Deleted   []string
}

func (m *MockRetrievalService) Ingest(_ context.Context, _, filename string) (*domain.Document, error) {
	return &domain.Document{ID: "new", Filename: filename}, nil
}

func (m *MockRetrievalService) AnswerQuery(_ context.Context, _ string, _ int) ([]domain.QueryResult, error) {
	return nil, domain.ErrNotFound
}

func (m *MockRetrievalService) Delete(_ context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.Deleted = append(m.Deleted, id)
	kept := m.Documents[:0]
	for _, d := range m.Documents {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	m.Documents = kept
	return nil
}

func (m *MockRetrievalService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.Documents {
		if m.Documents[i].ID == id {
			return &m.Documents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockRetrievalService) List(_ context.Context) ([]domain.Document, error) {
	return append([]domain.Document(nil), m.Documents...), nil
}

func (m *MockRetrievalService) Stats(_ context.Context) (*domain.IndexStats, error) {
	chunks := 0
	for _, d := range m.Documents {
		chunks += d.ChunkCount
	}
	return &domain.IndexStats{TotalChunks: chunks, TotalDocuments: len(m.Documents), Backend: "memory"}, nil
}
