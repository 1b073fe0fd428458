package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Retrieval provides chunk search and the document registry.
	Retrieval driving.RetrievalService

	// QA answers questions. Optional: without it the ask tool is not offered.
	QA driving.QAService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
