package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	a := Key("openai:grok-1", "hello")
	b := Key("ollama:nomic-embed-text", "hello")

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Key("openai:grok-1", "hello"))
	assert.Len(t, a, len("openai:grok-1:")+64)
}

func TestCodec_RoundTrip(t *testing.T) {
	v := []float32{0, -1.5, 3.25, 1e-7}

	got, err := decode(encode(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestCodec_Corrupt(t *testing.T) {
	_, err := decode([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	original := []float32{1, 2, 3}
	require.NoError(t, c.Set(ctx, "k", original, 0))
	original[0] = 99

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got)

	got[1] = 42
	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, float32(2), again[1])
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []float32{1}, time.Minute))

	_, ok, _ := c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemory_Close(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	require.NoError(t, c.Set(ctx, "k", []float32{1}, 0))

	require.NoError(t, c.Close())
	assert.Equal(t, 0, c.Len())
}

func TestNewRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewRedis(ctx, RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis cache: ping")
}
