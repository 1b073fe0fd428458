package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	svc, err := NewLLMService(context.Background(), Config{})
	require.Error(t, err)
	assert.Nil(t, svc)
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc, err := NewLLMService(context.Background(), Config{APIKey: "test-key"})
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, DefaultModel, svc.ModelName())
}

func TestModel_AppliesOptions(t *testing.T) {
	svc, err := NewLLMService(context.Background(), Config{APIKey: "test-key"})
	require.NoError(t, err)
	defer svc.Close()

	m := svc.model(500, 0.3, []string{"END"})
	require.NotNil(t, m.MaxOutputTokens)
	assert.Equal(t, int32(500), *m.MaxOutputTokens)
	require.NotNil(t, m.Temperature)
	assert.InDelta(t, 0.3, *m.Temperature, 1e-6)
	assert.Equal(t, []string{"END"}, m.StopSequences)

	bare := svc.model(0, 0, nil)
	assert.Nil(t, bare.MaxOutputTokens)
	assert.Nil(t, bare.Temperature)
}

func TestChat_RequiresUserMessage(t *testing.T) {
	svc, err := NewLLMService(context.Background(), Config{APIKey: "test-key"})
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Chat(context.Background(), []driven.ChatMessage{{Role: "system", Content: "only"}}, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("first"), genai.Text("second")}}},
			{Content: nil},
		},
	}
	text, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", text)

	_, err = responseText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, domain.ErrAnswerGeneration)
}
