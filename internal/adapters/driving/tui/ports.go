// Package tui provides an interactive terminal user interface for docqa.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// QA answers questions.
	QA driving.QAService

	// Retrieval lists and deletes documents.
	Retrieval driving.RetrievalService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(qa driving.QAService, retrieval driving.RetrievalService) *Ports {
	return &Ports{
		QA:        qa,
		Retrieval: retrieval,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.QA == nil {
		return ErrMissingQAService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
