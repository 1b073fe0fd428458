package domain

import "fmt"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderNone disables the service.
	AIProviderNone AIProvider = ""

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is any OpenAI-compatible API (OpenAI, x.ai).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsEmbeddings returns true if the provider offers an embedding API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI || p == AIProviderGemini
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderNone:
		return "None (disabled)"
	default:
		return unknownDescription
	}
}

// AllEmbeddingProviders lists the choices for embeddings, default first.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOpenAI, AIProviderOllama, AIProviderGemini, AIProviderNone}
}

// AllLLMProviders lists the choices for answer generation, default first.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOpenAI, AIProviderAnthropic, AIProviderOllama, AIProviderGemini, AIProviderNone}
}

// DefaultEmbeddingModels maps each provider to its suggested embedding model.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI: "grok-1",
		AIProviderOllama: "nomic-embed-text",
		AIProviderGemini: "text-embedding-004",
	}
}

// DefaultLLMModels maps each provider to its suggested answer model.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI:    "grok-beta",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
		AIProviderOllama:    "llama3.2",
		AIProviderGemini:    "gemini-2.5-flash",
	}
}

// DefaultBaseURLs maps each provider to the endpoint used when none is set.
func DefaultBaseURLs() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI: "https://api.x.ai/v1",
		AIProviderOllama: "http://localhost:11434",
	}
}

// IndexBackend selects the vector index implementation.
type IndexBackend string

// Available index backends.
const (
	IndexBackendMemory  IndexBackend = "memory"
	IndexBackendChromem IndexBackend = "chromem"
	IndexBackendSQLite  IndexBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendMemory, IndexBackendChromem, IndexBackendSQLite:
		return true
	default:
		return false
	}
}

// Persistent reports whether the index survives a restart.
func (b IndexBackend) Persistent() bool {
	return b == IndexBackendChromem || b == IndexBackendSQLite
}

// RegistryBackend selects where document bookkeeping is kept.
type RegistryBackend string

// Available registry backends.
const (
	RegistryBackendMemory RegistryBackend = "memory"
	RegistryBackendSQLite RegistryBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b RegistryBackend) IsValid() bool {
	return b == RegistryBackendMemory || b == RegistryBackendSQLite
}

// Persistent reports whether the registry survives a restart.
func (b RegistryBackend) Persistent() bool {
	return b == RegistryBackendSQLite
}

// CacheBackend selects the embedding cache.
type CacheBackend string

// Available cache backends.
const (
	CacheBackendNone   CacheBackend = "none"
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendRedis  CacheBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b CacheBackend) IsValid() bool {
	switch b {
	case CacheBackendNone, CacheBackendMemory, CacheBackendRedis:
		return true
	default:
		return false
	}
}

// Settings is the complete runtime configuration.
type Settings struct {
	Server    ServerSettings    `mapstructure:"server" toml:"server"`
	Chunking  ChunkingSettings  `mapstructure:"chunking" toml:"chunking"`
	Embedding EmbeddingSettings `mapstructure:"embedding" toml:"embedding"`
	LLM       LLMSettings       `mapstructure:"llm" toml:"llm"`
	Index     IndexSettings     `mapstructure:"index" toml:"index"`
	Storage   StorageSettings   `mapstructure:"storage" toml:"storage"`
	Cache     CacheSettings     `mapstructure:"cache" toml:"cache"`
	Prompts   PromptSettings    `mapstructure:"prompts" toml:"prompts"`
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	// Listen is the address the API binds to.
	Listen string `mapstructure:"listen" toml:"listen"`

	// CORSOrigins lists the origins allowed by CORS.
	CORSOrigins []string `mapstructure:"cors_origins" toml:"cors_origins"`

	// RequestTimeoutSeconds bounds every request.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" toml:"request_timeout_seconds"`

	// MaxUploadMB caps the upload size.
	MaxUploadMB int `mapstructure:"max_upload_mb" toml:"max_upload_mb"`
}

// ChunkingSettings configures the chunker.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int `mapstructure:"size" toml:"size"`

	// Overlap is the number of characters shared by consecutive chunks.
	Overlap int `mapstructure:"overlap" toml:"overlap"`
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider. Empty means fallback only.
	Provider AIProvider `mapstructure:"provider" toml:"provider"`

	// Model is the embedding model name.
	Model string `mapstructure:"model" toml:"model"`

	// BaseURL is the API endpoint.
	BaseURL string `mapstructure:"base_url" toml:"base_url"`

	// APIKey is the API key.
	APIKey string `mapstructure:"api_key" toml:"api_key,omitempty"`

	// TimeoutSeconds bounds each call to the service.
	TimeoutSeconds int `mapstructure:"timeout_seconds" toml:"timeout_seconds"`

	// FallbackDimensions is the dimension of fallback vectors.
	FallbackDimensions int `mapstructure:"fallback_dimensions" toml:"fallback_dimensions"`

	// RequestsPerSecond limits calls to the service. Zero disables limiting.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" toml:"requests_per_second"`

	// Concurrency is the number of chunks embedded in parallel during ingestion.
	Concurrency int `mapstructure:"concurrency" toml:"concurrency"`
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider. Empty disables answer generation.
	Provider AIProvider `mapstructure:"provider" toml:"provider"`

	// Model is the LLM model name.
	Model string `mapstructure:"model" toml:"model"`

	// BaseURL is the API endpoint.
	BaseURL string `mapstructure:"base_url" toml:"base_url"`

	// APIKey is the API key.
	APIKey string `mapstructure:"api_key" toml:"api_key,omitempty"`

	// TimeoutSeconds bounds each generation call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" toml:"timeout_seconds"`

	// Temperature is the sampling temperature.
	Temperature float64 `mapstructure:"temperature" toml:"temperature"`

	// MaxTokens caps the answer length.
	MaxTokens int `mapstructure:"max_tokens" toml:"max_tokens"`
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings configures the vector index.
type IndexSettings struct {
	Backend    IndexBackend `mapstructure:"backend" toml:"backend"`
	Collection string       `mapstructure:"collection" toml:"collection"`
}

// StorageSettings configures on-disk state.
type StorageSettings struct {
	// DataDir holds every persistent file. Empty means ~/.docqa.
	DataDir string `mapstructure:"data_dir" toml:"data_dir"`

	// Registry selects where document bookkeeping lives.
	Registry RegistryBackend `mapstructure:"registry" toml:"registry"`
}

// CacheSettings configures the embedding cache.
type CacheSettings struct {
	Backend       CacheBackend `mapstructure:"backend" toml:"backend"`
	RedisAddr     string       `mapstructure:"redis_addr" toml:"redis_addr"`
	RedisPassword string       `mapstructure:"redis_password" toml:"redis_password,omitempty"`
	RedisDB       int          `mapstructure:"redis_db" toml:"redis_db"`
	TTLSeconds    int          `mapstructure:"ttl_seconds" toml:"ttl_seconds"`
}

// PromptSettings locates prompt overrides.
type PromptSettings struct {
	// Dir holds *.txt prompt overrides. Empty means <data_dir>/prompts.
	Dir string `mapstructure:"dir" toml:"dir"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Listen:                ":8000",
			CORSOrigins:           []string{"http://localhost:3000"},
			RequestTimeoutSeconds: 120,
			MaxUploadMB:           50,
		},
		Chunking: ChunkingSettings{Size: 500, Overlap: 50},
		Embedding: EmbeddingSettings{
			Provider:           AIProviderOpenAI,
			Model:              "grok-1",
			BaseURL:            "https://api.x.ai/v1",
			TimeoutSeconds:     30,
			FallbackDimensions: 384,
			Concurrency:        4,
		},
		LLM: LLMSettings{
			Provider:       AIProviderOpenAI,
			Model:          "grok-beta",
			BaseURL:        "https://api.x.ai/v1",
			TimeoutSeconds: 30,
			Temperature:    0.3,
			MaxTokens:      500,
		},
		Index:   IndexSettings{Backend: IndexBackendChromem, Collection: "documents"},
		Storage: StorageSettings{Registry: RegistryBackendSQLite},
		Cache:   CacheSettings{Backend: CacheBackendNone, RedisAddr: "localhost:6379", TTLSeconds: 86400},
	}
}

// Validate checks the settings for values no adapter can work with.
func (s Settings) Validate() error {
	if s.Chunking.Size <= 0 || s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.Size {
		return fmt.Errorf("%w: chunking requires size > overlap >= 0 (size=%d, overlap=%d)",
			ErrInvalidInput, s.Chunking.Size, s.Chunking.Overlap)
	}
	if s.Embedding.Provider != AIProviderNone && !s.Embedding.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %q has no embedding API", ErrInvalidInput, s.Embedding.Provider)
	}
	if s.Embedding.FallbackDimensions <= 0 {
		return fmt.Errorf("%w: fallback_dimensions must be positive", ErrInvalidInput)
	}
	if s.LLM.Provider != AIProviderNone && !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidInput, s.LLM.Provider)
	}
	if !s.Index.Backend.IsValid() {
		return fmt.Errorf("%w: unknown index backend %q", ErrInvalidInput, s.Index.Backend)
	}
	if !s.Storage.Registry.IsValid() {
		return fmt.Errorf("%w: unknown registry backend %q", ErrInvalidInput, s.Storage.Registry)
	}
	// Chunks and their document records must share a lifetime.
	if s.Index.Backend.Persistent() != s.Storage.Registry.Persistent() {
		return fmt.Errorf("%w: index backend %q and registry %q must both persist or both live in memory",
			ErrInvalidInput, s.Index.Backend, s.Storage.Registry)
	}
	if !s.Cache.Backend.IsValid() {
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidInput, s.Cache.Backend)
	}
	return nil
}
