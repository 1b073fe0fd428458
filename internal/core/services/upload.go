package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure UploadService implements the interface.
var _ driving.UploadService = (*UploadService)(nil)

// UploadService extracts text from uploaded files and hands it to retrieval.
type UploadService struct {
	normalisers driven.NormaliserRegistry
	retrieval   driving.RetrievalService
}

// NewUploadService creates a new upload service.
func NewUploadService(normalisers driven.NormaliserRegistry, retrieval driving.RetrievalService) *UploadService {
	return &UploadService{
		normalisers: normalisers,
		retrieval:   retrieval,
	}
}

// Upload extracts and ingests one file.
func (s *UploadService) Upload(ctx context.Context, filename string, content []byte) (*domain.UploadResult, error) {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}

	result, err := s.normalisers.Normalise(ctx, name, content)
	if err != nil {
		logger.Debug("Extraction of %s failed: %v", name, err)
		return nil, err
	}
	logger.Debug("Extracted %d characters from %s (%s)", len(result.Text), name, result.Format)

	doc, err := s.retrieval.Ingest(ctx, result.Text, name)
	if err != nil {
		return nil, err
	}

	return &domain.UploadResult{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		ChunkCount: doc.ChunkCount,
	}, nil
}

// SupportedExtensions lists the accepted file extensions.
func (s *UploadService) SupportedExtensions() []string {
	return s.normalisers.SupportedExtensions()
}
