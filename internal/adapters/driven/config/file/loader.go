package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// EnvPrefix prefixes every environment override, e.g. DOCQA_LLM_MODEL.
const EnvPrefix = "DOCQA"

// DefaultDir returns ~/.docqa.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".docqa"), nil
}

// DefaultPath returns ~/.docqa/config.toml.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads settings from path, layered over the defaults and under the
// environment. An empty path means DefaultPath. A missing file is not an
// error.
func Load(path string) (domain.Settings, error) {
	// .env is optional.
	_ = godotenv.Load()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return domain.Settings{}, err
		}
		path = p
	}

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v, domain.DefaultSettings())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider keys are also honoured under their conventional names.
	if err := v.BindEnv("embedding.api_key", "DOCQA_EMBEDDING_API_KEY", "GROK_API_KEY", "OPENAI_API_KEY"); err != nil {
		return domain.Settings{}, fmt.Errorf("bind env: %w", err)
	}
	if err := v.BindEnv("llm.api_key", "DOCQA_LLM_API_KEY", "GROK_API_KEY", "OPENAI_API_KEY"); err != nil {
		return domain.Settings{}, fmt.Errorf("bind env: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return domain.Settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return domain.Settings{}, fmt.Errorf("stat config %s: %w", path, err)
	}

	var settings domain.Settings
	if err := v.Unmarshal(&settings); err != nil {
		return domain.Settings{}, fmt.Errorf("decode config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d domain.Settings) {
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.request_timeout_seconds", d.Server.RequestTimeoutSeconds)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)

	v.SetDefault("chunking.size", d.Chunking.Size)
	v.SetDefault("chunking.overlap", d.Chunking.Overlap)

	v.SetDefault("embedding.provider", string(d.Embedding.Provider))
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.base_url", d.Embedding.BaseURL)
	v.SetDefault("embedding.api_key", d.Embedding.APIKey)
	v.SetDefault("embedding.timeout_seconds", d.Embedding.TimeoutSeconds)
	v.SetDefault("embedding.fallback_dimensions", d.Embedding.FallbackDimensions)
	v.SetDefault("embedding.requests_per_second", d.Embedding.RequestsPerSecond)
	v.SetDefault("embedding.concurrency", d.Embedding.Concurrency)

	v.SetDefault("llm.provider", string(d.LLM.Provider))
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.timeout_seconds", d.LLM.TimeoutSeconds)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)

	v.SetDefault("index.backend", string(d.Index.Backend))
	v.SetDefault("index.collection", d.Index.Collection)

	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.registry", string(d.Storage.Registry))

	v.SetDefault("cache.backend", string(d.Cache.Backend))
	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.redis_password", d.Cache.RedisPassword)
	v.SetDefault("cache.redis_db", d.Cache.RedisDB)
	v.SetDefault("cache.ttl_seconds", d.Cache.TTLSeconds)

	v.SetDefault("prompts.dir", d.Prompts.Dir)
}

// ResolveDataDir returns the configured data directory or ~/.docqa.
func ResolveDataDir(s domain.Settings) (string, error) {
	if s.Storage.DataDir != "" {
		return s.Storage.DataDir, nil
	}
	return DefaultDir()
}

// ResolvePromptDir returns the configured prompt directory or <data_dir>/prompts.
func ResolvePromptDir(s domain.Settings) (string, error) {
	if s.Prompts.Dir != "" {
		return s.Prompts.Dir, nil
	}
	dir, err := ResolveDataDir(s)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompts"), nil
}
