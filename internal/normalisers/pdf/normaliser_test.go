package pdf

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func staticPages(pages ...string) PageSource {
	return func(io.ReaderAt, int64) ([]string, error) {
		return pages, nil
	}
}

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{".pdf"}, New().SupportedExtensions())
}

func TestNormalise_JoinsPages(t *testing.T) {
	n := NewWithPageSource(staticPages("Page one text.", "", "Page three text."))

	result, err := n.Normalise(context.Background(), "report.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "Page one text.\nPage three text.", result.Text)
	assert.Equal(t, ".pdf", result.Format)
}

func TestNormalise_NoPages(t *testing.T) {
	n := NewWithPageSource(staticPages())

	result, err := n.Normalise(context.Background(), "empty.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Empty(t, result.Text)
}

func TestNormalise_OnlyBlankPages(t *testing.T) {
	n := NewWithPageSource(staticPages(" ", "\n"))

	_, err := n.Normalise(context.Background(), "scanned.pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.ErrorContains(t, err, ErrNoText.Error())
}

func TestNormalise_PageSourceError(t *testing.T) {
	n := NewWithPageSource(func(io.ReaderAt, int64) ([]string, error) {
		return nil, errors.New("xref table broken")
	})

	result, err := n.Normalise(context.Background(), "broken.pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Contains(t, err.Error(), "broken.pdf")
	assert.Nil(t, result)
}

func TestNormalise_GarbageInput(t *testing.T) {
	result, err := New().Normalise(context.Background(), "fake.pdf", []byte("this is not a pdf at all"))
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Nil(t, result)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
