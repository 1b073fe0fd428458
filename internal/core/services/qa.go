package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure QAService implements the interface.
var _ driving.QAService = (*QAService)(nil)

// Answer texts returned in place of a generated answer.
const (
	AnswerTimedOut    = "Request timed out. Please try again."
	AnswerUnavailable = "Answer generation is not configured. The most relevant sources are listed below."
	answerErrorPrefix = "Error generating answer: "
)

// Generation defaults.
const (
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 500
)

// QAService answers questions from retrieved chunks with an LLM.
// The LLM is optional; without one, Ask still returns the sources.
type QAService struct {
	retrieval driving.RetrievalService
	llm       driven.LLMService
	prompts   driven.PromptStore
	opts      driven.ChatOptions
}

// NewQAService creates a new QA service. llm may be nil.
func NewQAService(
	retrieval driving.RetrievalService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	opts driven.ChatOptions,
) *QAService {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &QAService{
		retrieval: retrieval,
		llm:       llm,
		prompts:   prompts,
		opts:      opts,
	}
}

// Ask retrieves context for question and generates an answer from it.
// Retrieval errors are returned; generation errors become the answer text.
func (s *QAService) Ask(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	start := time.Now()

	sources, err := s.retrieval.AnswerQuery(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	answer := &domain.Answer{
		Question: strings.TrimSpace(question),
		Sources:  sources,
	}
	answer.Answer = s.generate(ctx, answer.Question, sources)
	answer.ResponseTime = time.Since(start)
	return answer, nil
}

func (s *QAService) generate(ctx context.Context, question string, sources []domain.QueryResult) string {
	if s.llm == nil {
		return AnswerUnavailable
	}

	messages, err := s.messages(question, sources)
	if err != nil {
		logger.Warn("Prompt rendering failed: %v", err)
		return answerErrorPrefix + err.Error()
	}

	logger.Debug("Generating answer with %s from %d sources", s.llm.ModelName(), len(sources))
	text, err := s.llm.Chat(ctx, messages, s.opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("Answer generation timed out")
			return AnswerTimedOut
		}
		logger.Warn("Answer generation failed: %v", err)
		return answerErrorPrefix + err.Error()
	}
	return strings.TrimSpace(text)
}

func (s *QAService) messages(question string, sources []domain.QueryResult) ([]driven.ChatMessage, error) {
	system, err := s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return nil, err
	}
	user, err := s.prompts.Load(driven.PromptAnswerUser)
	if err != nil {
		return nil, err
	}
	return []driven.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: fmt.Sprintf(user, BuildContext(sources), question)},
	}, nil
}

// BuildContext renders sources as numbered, attributed blocks.
func BuildContext(sources []domain.QueryResult) string {
	parts := make([]string, len(sources))
	for i, src := range sources {
		name := src.Metadata.Source
		if name == "" {
			name = "Unknown"
		}
		parts[i] = fmt.Sprintf("[Source %d: %s]\n%s\n", i+1, name, src.Text)
	}
	return strings.Join(parts, "\n")
}
