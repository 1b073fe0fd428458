// Package resilient provides the Embedder used by the core: an external
// embedding service guarded by a timeout, rate limiter, circuit breaker and
// cache, with the deterministic hashed embedding as its fallback.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/cache"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/hashed"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/metrics"
)

// Default configuration values.
const (
	DefaultTimeout          = 30 * time.Second
	DefaultFailureThreshold = 5
	DefaultOpenTimeout      = 30 * time.Second
	DefaultBatchSize        = 32
	DefaultConcurrency      = 4
)

// errNoService marks the fallback-only configuration.
var errNoService = errors.New("no embedding service configured")

// errCallerGone marks an attempt abandoned because the caller's context ended.
var errCallerGone = errors.New("caller context done")

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Config tunes the guards around the embedding service.
type Config struct {
	// Provider prefixes the service embedding space, e.g. "openai".
	Provider string

	// Timeout bounds each service call (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond limits service calls. Zero disables limiting.
	RequestsPerSecond float64

	// FailureThreshold is the number of consecutive failures that opens the breaker (default: 5).
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open (default: 30s).
	OpenTimeout time.Duration

	// BatchSize is the number of texts per service request (default: 32).
	BatchSize int

	// Concurrency is the number of requests in flight during one batch (default: 4).
	Concurrency int

	// CacheTTL is the lifetime of cached embeddings. Zero keeps them forever.
	CacheTTL time.Duration
}

// Option configures optional collaborators.
type Option func(*Embedder)

// WithCache caches service embeddings.
func WithCache(c driven.EmbeddingCache) Option {
	return func(e *Embedder) {
		e.cache = c
	}
}

// WithMetrics records provenance and failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Embedder) {
		e.metrics = m
	}
}

// Embedder returns service embeddings when it can and fallback embeddings
// otherwise. It never returns an error.
type Embedder struct {
	service  driven.EmbeddingService
	fallback *hashed.Embedder
	cache    driven.EmbeddingCache
	metrics  *metrics.Metrics
	breaker  *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	cfg      Config
	space    string
}

// New creates an Embedder. A nil service yields fallback embeddings only.
func New(service driven.EmbeddingService, fallback *hashed.Embedder, cfg Config, opts ...Option) *Embedder {
	if fallback == nil {
		fallback = hashed.New(hashed.DefaultDimensions)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Provider == "" {
		cfg.Provider = "service"
	}

	e := &Embedder{
		service:  service,
		fallback: fallback,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(e)
	}

	if service != nil {
		e.space = cfg.Provider + ":" + service.ModelName()
	}
	if cfg.RequestsPerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Concurrency)
	}

	e.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "embedding",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not the service's fault.
			return err == nil || errors.Is(err, errCallerGone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("%s circuit breaker: %s -> %s", name, from, to)
			e.metrics.SetBreakerOpen(to == gobreaker.StateOpen)
		},
	})

	return e
}

// Space returns the embedding space of service vectors, or the fallback
// space when no service is configured.
func (e *Embedder) Space() string {
	if e.service == nil {
		return e.fallback.Space()
	}
	return e.space
}

// FallbackSpace returns the fallback embedding space.
func (e *Embedder) FallbackSpace() string {
	return e.fallback.Space()
}

// Embed embeds a single text.
func (e *Embedder) Embed(ctx context.Context, text string) domain.Embedding {
	return e.EmbedBatch(ctx, []string{text})[0]
}

// EmbedBatch embeds texts in order. If any part of the batch cannot be
// served, the whole batch falls back so every result shares one space.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) []domain.Embedding {
	if len(texts) == 0 {
		return nil
	}

	vectors, err := e.fromService(ctx, texts)
	if err != nil {
		if errors.Is(err, errNoService) {
			logger.Debug("embedding %d texts with fallback (no service)", len(texts))
		} else {
			logger.Warn("embedding service unavailable, using fallback for %d texts: %v", len(texts), err)
		}
		e.metrics.ObserveEmbeddings(domain.ProvenanceFallback, len(texts))
		return e.fallback.EmbedBatch(ctx, texts)
	}

	out := make([]domain.Embedding, len(texts))
	for i, v := range vectors {
		out[i] = domain.Embedding{Vector: v, Provenance: domain.ProvenanceService, Space: e.space}
	}
	e.metrics.ObserveEmbeddings(domain.ProvenanceService, len(texts))
	return out
}

// fromService resolves every text from the cache or the service.
func (e *Embedder) fromService(ctx context.Context, texts []string) ([][]float32, error) {
	if e.service == nil {
		return nil, errNoService
	}

	out := make([][]float32, len(texts))
	var missing []int
	for i, text := range texts {
		if v, ok := e.cached(ctx, text); ok {
			out[i] = v
			continue
		}
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	// The breaker sees one outcome per attempt. Requests aborted because a
	// sibling failed never reach it on their own.
	_, err := e.breaker.Execute(func() (interface{}, error) {
		err := e.fetch(ctx, texts, missing, out)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerGone, err)
		}
		return nil, err
	})
	if err != nil {
		e.metrics.ObserveEmbeddingFailure()
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingService, err)
	}

	for _, i := range missing {
		e.store(ctx, texts[i], out[i])
	}
	return out, nil
}

// fetch fills out[i] for every missing index, BatchSize texts per request
// with at most Concurrency requests in flight.
func (e *Embedder) fetch(ctx context.Context, texts []string, missing []int, out [][]float32) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for start := 0; start < len(missing); start += e.cfg.BatchSize {
		idx := missing[start:min(start+e.cfg.BatchSize, len(missing))]
		g.Go(func() error {
			batch := make([]string, len(idx))
			for j, i := range idx {
				batch[j] = texts[i]
			}
			vectors, err := e.call(gctx, batch)
			if err != nil {
				return err
			}
			for j, i := range idx {
				out[i] = vectors[j]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	dims := len(out[0])
	for i, v := range out {
		if len(v) != dims {
			return fmt.Errorf("dimension %d at %d, expected %d", len(v), i, dims)
		}
	}
	return nil
}

// call makes one rate-limited, time-bounded service request.
func (e *Embedder) call(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	vectors, err := e.service.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("empty vector at %d", i)
		}
	}
	return vectors, nil
}

func (e *Embedder) cached(ctx context.Context, text string) ([]float32, bool) {
	if e.cache == nil {
		return nil, false
	}
	v, ok, err := e.cache.Get(ctx, cache.Key(e.space, text))
	if err != nil {
		logger.Debug("embedding cache get: %v", err)
		return nil, false
	}
	return v, ok
}

func (e *Embedder) store(ctx context.Context, text string, v []float32) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, cache.Key(e.space, text), v, e.cfg.CacheTTL); err != nil {
		logger.Debug("embedding cache set: %v", err)
	}
}

// BreakerState reports the circuit breaker state, for diagnostics.
func (e *Embedder) BreakerState() string {
	return e.breaker.State().String()
}

// Close releases the service and cache.
func (e *Embedder) Close() error {
	var errs []error
	if e.service != nil {
		errs = append(errs, e.service.Close())
	}
	if e.cache != nil {
		errs = append(errs, e.cache.Close())
	}
	return errors.Join(errs...)
}
