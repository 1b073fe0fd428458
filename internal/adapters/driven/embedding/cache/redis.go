package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Redis implements the interface.
var _ driven.EmbeddingCache = (*Redis)(nil)

// keyPrefix namespaces docqa entries in a shared Redis.
const keyPrefix = "docqa:embedding:"

// RedisConfig holds connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// DialTimeout bounds connection setup (default: 5s).
	DialTimeout time.Duration
}

// Redis caches embeddings in Redis as packed float32 strings.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis and verifies the connection with PING.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis cache: ping %s: %w", cfg.Addr, err)
	}

	return NewRedisFromClient(client), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get returns the cached vector, or ok=false on a miss.
func (r *Redis) Get(ctx context.Context, key string) ([]float32, bool, error) {
	b, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis cache: get: %w", err)
	}

	v, err := decode(b)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Set stores vector under key.
func (r *Redis) Set(ctx context.Context, key string, vector []float32, ttl time.Duration) error {
	if err := r.client.Set(ctx, keyPrefix+key, encode(vector), ttl).Err(); err != nil {
		return fmt.Errorf("redis cache: set: %w", err)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
