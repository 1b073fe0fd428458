package mcp

import (
	"context"
	"errors"
	"math"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// QuestionInput is the input schema for the search and ask tools.
type QuestionInput struct {
	Question string `json:"question" jsonschema:"the question to match against indexed documents"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default 3)"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	Position   int     `json:"position"`
	Text       string  `json:"text"`
	Distance   float64 `json:"distance"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []ChunkOutput `json:"results"`
	Count   int           `json:"count"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer       string        `json:"answer"`
	Sources      []ChunkOutput `json:"sources"`
	ResponseTime float64       `json:"response_time"`
}

// ListDocumentsInput is the (empty) input schema for list_documents.
type ListDocumentsInput struct{}

// DocumentOutput describes an indexed document.
type DocumentOutput struct {
	ID             string `json:"id"`
	Filename       string `json:"filename"`
	UploadDate     string `json:"upload_date"`
	ChunkCount     int    `json:"chunk_count"`
	EmbeddingSpace string `json:"embedding_space,omitempty"`
}

// ListDocumentsOutput is the output schema for list_documents.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the document chunks most relevant to a question",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all indexed documents",
	}, s.handleListDocuments)

	if s.ports.QA != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question from the indexed documents, citing the chunks used",
		}, s.handleAsk)
	}
}

// handleSearch handles the search tool invocation.
// No matching chunks is an empty result, not an error.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuestionInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Retrieval.AnswerQuery(ctx, input.Question, topK(input.TopK))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: toChunkOutputs(results),
		Count:   len(results),
	}
	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuestionInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.QA.Ask(ctx, input.Question, topK(input.TopK))
	if err != nil {
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:       answer.Answer,
		Sources:      toChunkOutputs(answer.Sources),
		ResponseTime: math.Round(answer.ResponseTime.Seconds()*100) / 100,
	}, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Retrieval.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	return nil, ListDocumentsOutput{
		Documents: toDocumentOutputs(docs),
		Count:     len(docs),
	}, nil
}

func topK(k int) int {
	if k <= 0 {
		return domain.DefaultTopK
	}
	return k
}

func toChunkOutputs(results []domain.QueryResult) []ChunkOutput {
	out := make([]ChunkOutput, len(results))
	for i, r := range results {
		out[i] = ChunkOutput{
			DocumentID: r.Metadata.DocumentID,
			Source:     r.Metadata.Source,
			Position:   r.Metadata.Position,
			Text:       r.Text,
			Distance:   r.Distance,
		}
	}
	return out
}
