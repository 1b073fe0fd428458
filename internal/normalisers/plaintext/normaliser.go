// Package plaintext extracts text from .txt files.
package plaintext

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// utf8BOM is stripped from the start of the text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".txt"}
}

// Normalise decodes content as UTF-8. Invalid sequences become U+FFFD
// rather than failing the upload.
func (n *Normaliser) Normalise(_ context.Context, _ string, content []byte) (*driven.NormaliseResult, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	text := string(content)
	if !utf8.Valid(content) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}

	return &driven.NormaliseResult{
		Text:   text,
		Format: ".txt",
	}, nil
}
