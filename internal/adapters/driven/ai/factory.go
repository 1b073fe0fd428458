// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/cache"
	geminiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/gemini"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/hashed"
	ollamaembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/resilient"
	anthropicllm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/metrics"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	Embedder   *resilient.Embedder
	LLMService driven.LLMService // Nil when answer generation is disabled.
	Warnings   []string          // Non-fatal issues that caused fallback.
	FellBack   bool              // True if embeddings come from the fallback only.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Embedder != nil {
		if err := r.Embedder.Close(); err != nil {
			logger.Debug("closing embedder: %v", err)
		}
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialise builds the embedder and the LLM service from settings.
// Misconfigured or unreachable services degrade to fallback embeddings and
// source-only answers, with a warning, instead of failing.
func Initialise(ctx context.Context, settings domain.Settings, m *metrics.Metrics) *InitResult {
	result := &InitResult{}

	embedSettings := settings.Embedding
	svc, err := CreateEmbeddingService(ctx, &embedSettings)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("embedding service disabled: %v", err))
		svc = nil
	}
	if svc == nil {
		result.FellBack = true
	}

	opts := []resilient.Option{resilient.WithMetrics(m)}
	embeddingCache, err := CreateEmbeddingCache(ctx, settings.Cache)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("embedding cache disabled: %v", err))
	} else if embeddingCache != nil {
		opts = append(opts, resilient.WithCache(embeddingCache))
	}

	result.Embedder = resilient.New(svc, hashed.New(embedSettings.FallbackDimensions), resilient.Config{
		Provider:          string(embedSettings.Provider),
		Timeout:           seconds(embedSettings.TimeoutSeconds),
		RequestsPerSecond: embedSettings.RequestsPerSecond,
		Concurrency:       embedSettings.Concurrency,
		CacheTTL:          seconds(settings.Cache.TTLSeconds),
	}, opts...)

	llmSettings := settings.LLM
	llm, err := CreateLLMService(ctx, &llmSettings)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("answer generation disabled: %v", err))
		llm = nil
	}
	result.LLMService = llm

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result
}

// CreateEmbeddingCache creates the configured embedding cache.
// Returns nil if caching is disabled.
func CreateEmbeddingCache(ctx context.Context, settings domain.CacheSettings) (driven.EmbeddingCache, error) {
	switch settings.Backend {
	case domain.CacheBackendNone:
		return nil, nil
	case domain.CacheBackendMemory:
		return cache.NewMemory(), nil
	case domain.CacheBackendRedis:
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return cache.NewRedis(pingCtx, cache.RedisConfig{
			Addr:     settings.RedisAddr,
			Password: settings.RedisPassword,
			DB:       settings.RedisDB,
		})
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", settings.Backend)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'docqa config show' to check settings",
			domain.ErrEmbeddingService, err)
	}
	if svc == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'docqa config show' to check settings",
			domain.ErrEmbeddingService, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'docqa config show' to check settings",
			domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'docqa config show' to check settings",
			domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// ValidateEmbeddingConfig creates a service from settings and pings it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbeddingService(context.Background(), settings)
	if svc != nil {
		svc.Close()
	}
	return err
}

// ValidateLLMConfig creates a service from settings and pings it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateAndValidateLLMService(context.Background(), settings)
	if svc != nil {
		svc.Close()
	}
	return err
}

// CreateEmbeddingService creates the embedding service named by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || settings.Provider == domain.AIProviderNone {
		return nil, nil
	}
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return nil, fmt.Errorf("%s embeddings need an API key", settings.Provider)
	}

	timeout := seconds(settings.TimeoutSeconds)
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama, openai or gemini")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the LLM service named by settings.
// Returns nil if the provider is not configured.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || settings.Provider == domain.AIProviderNone {
		return nil, nil
	}
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return nil, fmt.Errorf("%s needs an API key", settings.Provider)
	}

	timeout := seconds(settings.TimeoutSeconds)
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
