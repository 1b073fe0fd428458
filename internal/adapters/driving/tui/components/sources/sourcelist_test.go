package sources

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func testResults(n int) []domain.QueryResult {
	out := make([]domain.QueryResult, n)
	for i := range out {
		out[i] = domain.QueryResult{
			Text:     "chunk text",
			Metadata: domain.ChunkMetadata{Source: "doc.txt", Position: i, TotalChunks: n},
			Distance: float64(i) / 10,
		}
	}
	return out
}

func TestList_Empty(t *testing.T) {
	l := NewList(nil)

	assert.Equal(t, 0, l.Count())
	assert.Nil(t, l.SelectedResult())
	assert.Contains(t, l.View(), "No sources")
}

func TestList_RendersSources(t *testing.T) {
	l := NewList(nil)
	l.SetResults(testResults(2))

	out := l.View()
	assert.Contains(t, out, "Sources (2)")
	assert.Contains(t, out, "[Source 1: doc.txt] chunk 1/2")
	assert.Contains(t, out, "[Source 2: doc.txt] chunk 2/2")
	assert.Contains(t, out, "0.100")
}

func TestList_UnknownSourceName(t *testing.T) {
	l := NewList(nil)
	l.SetResults([]domain.QueryResult{{Text: "x", Metadata: domain.ChunkMetadata{TotalChunks: 1}}})

	assert.Contains(t, l.View(), "[Source 1: Unknown]")
}

func TestList_PreviewTruncated(t *testing.T) {
	l := NewList(nil)
	l.SetDimensions(40, 10)
	l.SetResults([]domain.QueryResult{{Text: strings.Repeat("word ", 50), Metadata: domain.ChunkMetadata{Source: "a"}}})

	assert.Contains(t, l.View(), "...")
}

func TestList_Navigation(t *testing.T) {
	l := NewList(nil)
	l.SetResults(testResults(3))

	l.MoveUp()
	assert.Equal(t, 0, l.Selected())

	l.MoveDown()
	l.MoveDown()
	l.MoveDown()
	assert.Equal(t, 2, l.Selected())

	selected := l.SelectedResult()
	require.NotNil(t, selected)
	assert.Equal(t, 2, selected.Metadata.Position)

	l.SetResults(testResults(1))
	assert.Equal(t, 0, l.Selected())
}

func TestList_ScrollsToSelection(t *testing.T) {
	l := NewList(nil)
	l.SetDimensions(80, 6) // two visible sources
	l.SetResults(testResults(5))

	for range 4 {
		l.MoveDown()
	}

	out := l.View()
	assert.Contains(t, out, "[Source 5: doc.txt]")
	assert.NotContains(t, out, "[Source 1: doc.txt]")
}
