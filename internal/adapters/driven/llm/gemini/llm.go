// Package gemini provides an LLM service adapter using the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is the default Gemini generation model.
const DefaultModel = "gemini-2.5-flash"

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the generation model to use (default: gemini-2.5-flash).
	Model string

	// Options are extra client options, e.g. a custom endpoint.
	Options []option.ClientOption
}

// LLMService generates answers using Gemini.
type LLMService struct {
	client    *genai.Client
	modelName string
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, cfg.Options...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &LLMService{client: client, modelName: cfg.Model}, nil
}

// model returns a fresh model handle; handles carry mutable generation settings.
func (s *LLMService) model(maxTokens int, temperature float64, stop []string) *genai.GenerativeModel {
	m := s.client.GenerativeModel(s.modelName)
	if maxTokens > 0 {
		m.SetMaxOutputTokens(int32(maxTokens))
	}
	if temperature > 0 {
		m.SetTemperature(float32(temperature))
	}
	if len(stop) > 0 {
		m.StopSequences = stop
	}
	return m
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m := s.model(opts.MaxTokens, opts.Temperature, opts.StopWords)
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %w", domain.ErrAnswerGeneration, err)
	}
	return responseText(resp)
}

// Chat conducts a multi-turn conversation. System messages become the
// model's system instruction and the last message is sent to the chat session.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m := s.model(opts.MaxTokens, opts.Temperature, nil)

	var system []string
	var turns []driven.ChatMessage
	for _, msg := range messages {
		if msg.Role == "system" {
			system = append(system, msg.Content)
			continue
		}
		turns = append(turns, msg)
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("%w: gemini: no user message", domain.ErrInvalidInput)
	}
	if len(system) > 0 {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}

	session := m.StartChat()
	for _, msg := range turns[:len(turns)-1] {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %w", domain.ErrAnswerGeneration, err)
	}
	return responseText(resp)
}

// responseText joins the text parts of every candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	var parts []string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				parts = append(parts, string(text))
			}
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: gemini: no text in response", domain.ErrAnswerGeneration)
	}
	return strings.Join(parts, "\n"), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.modelName
}

// Ping lists models to validate the key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	_, err := s.client.ListModels(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("%w: gemini: ping failed: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *LLMService) Close() error {
	return s.client.Close()
}
