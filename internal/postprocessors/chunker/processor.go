// Package chunker provides a boundary-aware sliding-window text chunker.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 50

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor splits document text into overlapping chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Chunk splits text into chunks owned by documentID.
// Whitespace-only segments are dropped; positions stay contiguous over the
// segments that remain.
func (p *Processor) Chunk(_ context.Context, documentID, filename, text string) ([]domain.Chunk, error) {
	all, err := Split(text, p.chunkSize, p.overlap)
	if err != nil {
		return nil, err
	}
	segments := all[:0]
	for _, segment := range all {
		if strings.TrimSpace(segment) != "" {
			segments = append(segments, segment)
		}
	}
	if len(segments) == 0 {
		// Empty content produces no chunks
		return nil, nil
	}

	total := len(segments)
	chunks := make([]domain.Chunk, 0, total)
	for i, segment := range segments {
		chunks = append(chunks, domain.Chunk{
			ID:          domain.ChunkID(documentID, i),
			DocumentID:  documentID,
			Content:     segment,
			Position:    i,
			TotalChunks: total,
			Metadata: domain.ChunkMetadata{
				Source:      filename,
				DocumentID:  documentID,
				Position:    i,
				TotalChunks: total,
			},
		})
	}

	return chunks, nil
}

// separators are the natural boundaries, strongest first.
// A hard cut is used when none of them qualifies.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(" "),
}

// Split cuts text into segments of at most chunkSize characters.
//
// Each segment after the first starts exactly overlap characters before the
// end of the previous one, so dropping the first overlap characters of every
// segment but the first and concatenating reconstructs text. Segment ends are
// placed after the strongest separator found in the back half of the window.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk size must exceed overlap (size=%d, overlap=%d)",
			domain.ErrInvalidInput, chunkSize, overlap)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	// A boundary only counts if the segment it closes is longer than minLen.
	// That keeps every step moving forward by more than half a stride.
	minLen := overlap + (chunkSize-overlap)/2

	segments := make([]string, 0, len(runes)/(chunkSize-overlap)+1)
	start := 0
	for {
		if len(runes)-start <= chunkSize {
			segments = append(segments, string(runes[start:]))
			return segments, nil
		}

		end := boundary(runes, start+minLen+1, start+chunkSize, separators)
		segments = append(segments, string(runes[start:end]))
		start = end - overlap
	}
}

// boundary returns the largest end in [lo, hi] that falls right after an
// occurrence of seps[0], descending to weaker separators when there is none.
func boundary(runes []rune, lo, hi int, seps [][]rune) int {
	if len(seps) == 0 {
		return hi
	}

	sep := seps[0]
	for end := hi; end >= lo && end >= len(sep); end-- {
		if hasSuffixAt(runes, end, sep) {
			return end
		}
	}

	return boundary(runes, lo, hi, seps[1:])
}

func hasSuffixAt(runes []rune, end int, sep []rune) bool {
	offset := end - len(sep)
	for i, r := range sep {
		if runes[offset+i] != r {
			return false
		}
	}
	return true
}
