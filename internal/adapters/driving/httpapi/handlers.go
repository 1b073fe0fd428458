package httpapi

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

type rootResponse struct {
	Message   string   `json:"message"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

type uploadResponse struct {
	Message       string `json:"message"`
	DocumentID    string `json:"document_id"`
	ChunksCreated int    `json:"chunks_created"`
}

type queryRequest struct {
	Question string `json:"question"`
	TopK     *int   `json:"top_k"`
}

type sourceResponse struct {
	Text     string               `json:"text"`
	Metadata domain.ChunkMetadata `json:"metadata"`
	Distance float64              `json:"distance"`
}

type queryResponse struct {
	Answer       string           `json:"answer"`
	Sources      []sourceResponse `json:"sources"`
	ResponseTime float64          `json:"response_time"`
}

type documentResponse struct {
	ID             string `json:"id"`
	Filename       string `json:"filename"`
	UploadDate     string `json:"upload_date"`
	ChunkCount     int    `json:"chunk_count"`
	EmbeddingSpace string `json:"embedding_space,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, rootResponse{
		Message:   "Document Q&A System API",
		Version:   s.cfg.Version,
		Endpoints: []string{"/upload", "/query", "/documents", "/stats"},
	})
}

func (s *Server) upload(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required")
	}

	f, err := header.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}

	result, err := s.services.Uploads.Upload(c.Request().Context(), header.Filename, content)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("Only %s files supported", supportedList(s.services.Uploads.SupportedExtensions())))
		}
		return err
	}

	return c.JSON(http.StatusOK, uploadResponse{
		Message:       "Document uploaded successfully",
		DocumentID:    result.DocumentID,
		ChunksCreated: result.ChunkCount,
	})
}

func (s *Server) query(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}
	topK := domain.DefaultTopK
	if req.TopK != nil {
		if *req.TopK <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "top_k must be positive")
		}
		topK = *req.TopK
	}

	answer, err := s.services.QA.Ask(c.Request().Context(), req.Question, topK)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "No relevant documents found")
		}
		return err
	}

	sources := make([]sourceResponse, len(answer.Sources))
	for i, src := range answer.Sources {
		sources[i] = sourceResponse{Text: src.Text, Metadata: src.Metadata, Distance: src.Distance}
	}

	return c.JSON(http.StatusOK, queryResponse{
		Answer:       answer.Answer,
		Sources:      sources,
		ResponseTime: math.Round(answer.ResponseTime.Seconds()*100) / 100,
	})
}

func (s *Server) listDocuments(c echo.Context) error {
	docs, err := s.services.Retrieval.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]documentResponse, len(docs))
	for i := range docs {
		out[i] = toDocumentResponse(&docs[i])
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getDocument(c echo.Context) error {
	doc, err := s.services.Retrieval.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDocumentResponse(doc))
}

func (s *Server) deleteDocument(c echo.Context) error {
	if err := s.services.Retrieval.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Document not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Document deleted successfully"})
}

func (s *Server) stats(c echo.Context) error {
	stats, err := s.services.Retrieval.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func toDocumentResponse(doc *domain.Document) documentResponse {
	return documentResponse{
		ID:             doc.ID,
		Filename:       doc.Filename,
		UploadDate:     doc.UploadedAt.Format(time.RFC3339),
		ChunkCount:     doc.ChunkCount,
		EmbeddingSpace: doc.EmbeddingSpace,
	}
}

// supportedList renders [".docx", ".pdf", ".txt"] as "DOCX, PDF, and TXT".
func supportedList(exts []string) string {
	names := make([]string, len(exts))
	for i, ext := range exts {
		names[i] = strings.ToUpper(strings.TrimPrefix(ext, "."))
	}
	switch len(names) {
	case 0:
		return "no"
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
	}
}
