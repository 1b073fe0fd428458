package driven

import "context"

// Normaliser extracts plain text from one family of file formats.
type Normaliser interface {
	// SupportedExtensions returns the lower-case extensions handled, including the dot.
	SupportedExtensions() []string

	// Normalise extracts text from the file content.
	// Failures wrap domain.ErrExtraction.
	Normalise(ctx context.Context, filename string, content []byte) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking happens later, in the retrieval service.
type NormaliseResult struct {
	// Text is the extracted plain text.
	Text string

	// Format is the extension the normaliser handled, e.g. ".pdf".
	Format string
}

// NormaliserRegistry selects a normaliser by file extension.
type NormaliserRegistry interface {
	// Normalise extracts text using the normaliser registered for the filename's extension.
	// Unknown extensions return domain.ErrUnsupportedFormat.
	Normalise(ctx context.Context, filename string, content []byte) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedExtensions returns all extensions that can be normalised.
	SupportedExtensions() []string
}
