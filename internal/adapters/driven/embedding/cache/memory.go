package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Memory implements the interface.
var _ driven.EmbeddingCache = (*Memory)(nil)

type memoryEntry struct {
	vector  []float32
	expires time.Time
}

// Memory is an in-process embedding cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the cached vector.
func (m *Memory) Get(_ context.Context, key string) ([]float32, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !entry.expires.IsZero() && m.now().After(entry.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return slices.Clone(entry.vector), true, nil
}

// Set stores a copy of vector.
func (m *Memory) Set(_ context.Context, key string, vector []float32, ttl time.Duration) error {
	entry := memoryEntry{vector: slices.Clone(vector)}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

// Len returns the number of entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close drops all entries.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
	return nil
}
