// Package app assembles the services and adapters described by Settings.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector/chromem"
	vectormemory "github.com/custodia-labs/docqa/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/metrics"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

// App holds the wired services and the resources behind them.
type App struct {
	Settings  domain.Settings
	Metrics   *metrics.Metrics
	Retrieval *services.RetrievalService
	Uploads   *services.UploadService
	QA        *services.QAService
	Prompts   *file.PromptStore

	// Warnings lists degraded AI features, e.g. fallback-only embeddings.
	Warnings []string

	ai      *ai.InitResult
	index   driven.VectorIndex
	store   *sqlite.Store
	dataDir string
}

// New builds the application from settings.
func New(ctx context.Context, settings domain.Settings) (*App, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	dataDir, err := file.ResolveDataDir(settings)
	if err != nil {
		return nil, err
	}
	promptDir, err := file.ResolvePromptDir(settings)
	if err != nil {
		return nil, err
	}

	a := &App{
		Settings: settings,
		Metrics:  metrics.New(),
		dataDir:  dataDir,
	}

	if settings.Index.Backend == domain.IndexBackendSQLite || settings.Storage.Registry == domain.RegistryBackendSQLite {
		a.store, err = sqlite.NewStore(filepath.Join(dataDir, "data"))
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	}

	a.index, err = a.openIndex(settings.Index)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var registry driven.DocumentStore
	if settings.Storage.Registry == domain.RegistryBackendSQLite {
		registry = a.store.DocumentStore()
	} else {
		registry = memory.NewDocumentStore()
	}

	a.Prompts, err = file.NewPromptStore(promptDir)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.ai = ai.Initialise(ctx, settings, a.Metrics)
	a.Warnings = a.ai.Warnings

	a.Retrieval = services.NewRetrievalService(
		chunker.New(
			chunker.WithChunkSize(settings.Chunking.Size),
			chunker.WithOverlap(settings.Chunking.Overlap),
		),
		a.ai.Embedder,
		a.index,
		registry,
		services.WithRetrievalMetrics(a.Metrics),
	)
	a.Uploads = services.NewUploadService(normalisers.DefaultRegistry(), a.Retrieval)

	a.QA = services.NewQAService(a.Retrieval, a.ai.LLMService, a.Prompts, driven.ChatOptions{
		Temperature: settings.LLM.Temperature,
		MaxTokens:   settings.LLM.MaxTokens,
	})

	if n, err := a.index.Count(ctx); err == nil {
		a.Metrics.SetIndexChunks(n)
	}
	logger.Debug("App ready: index=%s registry=%s data=%s", a.index.Name(), settings.Storage.Registry, dataDir)
	return a, nil
}

func (a *App) openIndex(cfg domain.IndexSettings) (driven.VectorIndex, error) {
	switch cfg.Backend {
	case domain.IndexBackendMemory:
		return vectormemory.New(), nil
	case domain.IndexBackendSQLite:
		return a.store.VectorIndex(), nil
	case domain.IndexBackendChromem:
		idx, err := chromem.New(chromem.Config{
			Path:       filepath.Join(a.dataDir, "chromem"),
			Collection: cfg.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("open chromem index: %w", err)
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}

// EmbeddingSpace returns the space new documents are embedded in.
func (a *App) EmbeddingSpace() string {
	return a.ai.Embedder.Space()
}

// LLMModel returns the answer model name, or "" when generation is disabled.
func (a *App) LLMModel() string {
	if a.ai == nil || a.ai.LLMService == nil {
		return ""
	}
	return a.ai.LLMService.ModelName()
}

// DataDir returns the directory holding persistent state.
func (a *App) DataDir() string {
	return a.dataDir
}

// Close releases every resource.
func (a *App) Close() error {
	var errs []error
	if a.ai != nil {
		a.ai.Close()
	}
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
