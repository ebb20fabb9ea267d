package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quillview/pagetutor/internal/config"
	"github.com/quillview/pagetutor/internal/domain"
	"github.com/quillview/pagetutor/internal/ingest"
)

type uploadResponse struct {
	Success     bool   `json:"success"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	TotalPages  int    `json:"totalPages"`
	TextContent string `json:"textContent"`
}

// handleUpload ingests one document payload: extract text, chunk into page
// segments, return the page-marked blob. No document state survives the
// request; the client persists what it needs and resends the text each turn.
func (s *Server) handleUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no document file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, config.MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read document"})
		return
	}

	text, pages, err := ingest.Extract(header.Filename, data)
	if err != nil {
		slog.Warn("document extraction failed", "name", header.Filename, "error", err)
		c.JSON(ingestStatus(err), gin.H{"error": ingestMessage(err)})
		return
	}

	segments, err := ingest.Chunk(text, pages)
	if err != nil {
		slog.Error("chunking failed", "name", header.Filename, "pages", pages, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process document"})
		return
	}

	doc := domain.Document{
		ID:          uuid.NewString(),
		Name:        header.Filename,
		TotalPages:  pages,
		TextContent: ingest.MarkedText(segments),
		CreatedAt:   time.Now().UTC(),
	}

	c.JSON(http.StatusOK, uploadResponse{
		Success:     true,
		ID:          doc.ID,
		Name:        doc.Name,
		TotalPages:  doc.TotalPages,
		TextContent: doc.TextContent,
	})
}

func ingestStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrEmptyDocument),
		errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrInvalidPageCount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func ingestMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrDocumentTooLarge):
		return "document is too large"
	case errors.Is(err, domain.ErrEmptyDocument):
		return "document contains no readable text"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return "unsupported document format"
	default:
		return "failed to process document"
	}
}
