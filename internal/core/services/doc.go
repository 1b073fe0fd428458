// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// RetrievalService owns the document lifecycle, UploadService fronts it with
// text extraction and QAService turns retrieved chunks into answers.
package services
