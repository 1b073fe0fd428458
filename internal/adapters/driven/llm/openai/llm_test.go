package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(LLMConfig{APIKey: "test-key", BaseURL: server.URL, Model: "grok-beta"})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.Error(t, err)
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc, err := NewLLMService(LLMConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.Equal(t, DefaultLLMTimeout, svc.client.Timeout)
}

func TestChat_SendsMessagesAndOptions(t *testing.T) {
	var got chatCompletionRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"The answer."},"finish_reason":"stop"}]}`))
	})

	answer, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "what?"},
	}, driven.ChatOptions{MaxTokens: 500, Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "The answer.", answer)

	assert.Equal(t, "grok-beta", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, 500, got.MaxTokens)
	assert.InDelta(t, 0.3, got.Temperature, 1e-9)
}

func TestGenerate_StopWords(t *testing.T) {
	var got chatCompletionRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := svc.Generate(context.Background(), "hi", driven.GenerateOptions{StopWords: []string{"\n\n"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"\n\n"}, got.Stop)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "api error", status: http.StatusUnauthorized, body: `{"error":{"message":"bad key"}}`, wantMsg: "bad key"},
		{name: "plain error", status: http.StatusBadGateway, body: `upstream down`, wantMsg: "upstream down"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantMsg: "no response choices"},
		{name: "garbage", status: http.StatusOK, body: `not json`, wantMsg: "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "q"}}, driven.ChatOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrAnswerGeneration)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestChat_ContextDeadline(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Chat(ctx, []driven.ChatMessage{{Role: "user", Content: "q"}}, driven.ChatOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.ErrorIs(t, err, domain.ErrAnswerGeneration)
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, svc.Ping(context.Background()))

	failing := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	assert.ErrorIs(t, failing.Ping(context.Background()), domain.ErrLLMUnavailable)
}
