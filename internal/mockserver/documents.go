package mockserver

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gabe/consultant/internal/models"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// documentView advances the simulated ingestion status from the creation time.
// Must be called with s.mu held.
func (s *Server) documentView(doc *models.Document) models.Document {
	out := *doc
	if out.DocumentStatus.IsTerminal() {
		return out
	}

	elapsed := s.opts.Now().Sub(doc.CreatedAt)
	switch {
	case elapsed >= 2*s.opts.DocumentDelay:
		out.DocumentStatus = models.DocumentStatusDone
		out.UpdatedAt = doc.CreatedAt.Add(2 * s.opts.DocumentDelay)
	case elapsed >= s.opts.DocumentDelay:
		out.DocumentStatus = models.DocumentStatusProcessing
		out.UpdatedAt = doc.CreatedAt.Add(s.opts.DocumentDelay)
	}
	return out
}

// ListDocuments returns all documents in upload order.
// GET /api/documents
func (s *Server) ListDocuments(c echo.Context) error {
	s.mu.Lock()
	documents := make([]models.Document, 0, len(s.docOrder))
	for _, id := range s.docOrder {
		documents = append(documents, s.documentView(s.documents[id]))
	}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{"documents": documents})
}

// CreateDocument stores an uploaded document.
// POST /api/documents
func (s *Server) CreateDocument(c echo.Context) error {
	var req models.CreateDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Bad Request")
	}

	switch req.DocumentType {
	case models.DocumentTypePDF, models.DocumentTypeMarkdown, models.DocumentTypeCSV:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported document type")
	}
	if strings.TrimSpace(req.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if _, err := base64.StdEncoding.DecodeString(req.Data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "data must be base64 encoded")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.documents {
		if doc.Title == req.Title {
			return echo.NewHTTPError(http.StatusConflict, "Conflict")
		}
	}

	now := s.opts.Now()
	doc := &models.Document{
		ID:             uuid.NewString(),
		Title:          req.Title,
		DocumentType:   req.DocumentType,
		DocumentStatus: models.DocumentStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.documents[doc.ID] = doc
	s.docOrder = append(s.docOrder, doc.ID)

	return c.JSON(http.StatusCreated, models.CreatedResource{ID: doc.ID})
}

// GetDocument returns one document.
// GET /api/documents/:documentId
func (s *Server) GetDocument(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[c.Param("documentId")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Not Found")
	}
	return c.JSON(http.StatusOK, s.documentView(doc))
}

// DeleteDocument removes a document.
// DELETE /api/documents/:documentId
func (s *Server) DeleteDocument(c echo.Context) error {
	id := c.Param("documentId")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Not Found")
	}
	delete(s.documents, id)
	s.docOrder = removeID(s.docOrder, id)

	return c.NoContent(http.StatusNoContent)
}
