package normalisers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/normalisers/docx"
	"github.com/custodia-labs/docqa/internal/normalisers/pdf"
	"github.com/custodia-labs/docqa/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps file extensions to normalisers.
type Registry struct {
	mu          sync.RWMutex
	normalisers map[string]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		normalisers: make(map[string]driven.Normaliser),
	}
}

// DefaultRegistry returns a registry with the built-in .txt, .docx and .pdf normalisers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	return r
}

// Register adds a normaliser for each of its extensions.
// A later registration for the same extension replaces the earlier one.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range n.SupportedExtensions() {
		r.normalisers[strings.ToLower(ext)] = n
	}
}

// SupportedExtensions returns all registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.normalisers))
	for ext := range r.normalisers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Normalise extracts text with the normaliser registered for filename's extension.
func (r *Registry) Normalise(ctx context.Context, filename string, content []byte) (*driven.NormaliseResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	r.mu.RLock()
	n, ok := r.normalisers[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}

	return n.Normalise(ctx, filename, content)
}
