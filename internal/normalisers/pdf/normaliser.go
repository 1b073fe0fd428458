// Package pdf extracts text from PDF files using github.com/ledongthuc/pdf.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrNoText is returned when no page yielded text.
var ErrNoText = errors.New("no extractable text")

// PageSource yields the plain text of each page in order.
// The default implementation reads the document with ledongthuc/pdf.
type PageSource func(r io.ReaderAt, size int64) ([]string, error)

// Normaliser handles PDF documents.
type Normaliser struct {
	pages PageSource
}

// New creates a PDF normaliser backed by ledongthuc/pdf.
func New() *Normaliser {
	return &Normaliser{pages: readPages}
}

// NewWithPageSource creates a normaliser with a custom page reader (for testing).
func NewWithPageSource(pages PageSource) *Normaliser {
	return &Normaliser{pages: pages}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Normalise joins the text of every page with newlines.
func (n *Normaliser) Normalise(_ context.Context, filename string, content []byte) (*driven.NormaliseResult, error) {
	pages, err := n.pages(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, filename, err)
	}

	var text strings.Builder
	for _, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		text.WriteString(page)
		text.WriteString("\n")
	}

	if len(pages) > 0 && text.Len() == 0 {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, filename, ErrNoText)
	}

	return &driven.NormaliseResult{
		Text:   strings.TrimSpace(text.String()),
		Format: ".pdf",
	}, nil
}

// readPages extracts page text with ledongthuc/pdf. The library panics on
// some malformed inputs, so panics are turned into errors.
func readPages(r io.ReaderAt, size int64) (pages []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	count := reader.NumPage()
	pages = make([]string, 0, count)
	for i := 1; i <= count; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("pdf: skipping page %d: %v", i, err)
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
