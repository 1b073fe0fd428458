package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// UploadService turns uploaded files into indexed documents.
type UploadService interface {
	// Upload extracts text from content according to the filename's extension
	// and ingests it.
	Upload(ctx context.Context, filename string, content []byte) (*domain.UploadResult, error)

	// SupportedExtensions lists the accepted file extensions.
	SupportedExtensions() []string
}
