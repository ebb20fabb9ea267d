package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/quillview/pagetutor/internal/config"
	"github.com/quillview/pagetutor/internal/domain"
)

// Extract pulls plain text and a page count out of an uploaded payload.
// PDFs report their real page count; HTML and plain text have no intrinsic
// pagination, so the count is estimated from text length.
func Extract(name string, data []byte) (string, int, error) {
	if len(data) > config.MaxUploadBytes {
		return "", 0, fmt.Errorf("%s: %w", name, domain.ErrDocumentTooLarge)
	}
	if len(data) == 0 {
		return "", 0, fmt.Errorf("%s: %w", name, domain.ErrEmptyDocument)
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return extractPDF(data)
	case ".html", ".htm":
		text, err := extractHTML(data)
		if err != nil {
			return "", 0, err
		}
		return text, estimatePages(text), nil
	default:
		if !utf8.Valid(data) {
			return "", 0, fmt.Errorf("%s: %w", name, domain.ErrUnsupportedFormat)
		}
		text := string(data)
		return text, estimatePages(text), nil
	}
}

func estimatePages(text string) int {
	pages := (utf8.RuneCountInString(text) + config.CharsPerEstimatedPage - 1) / config.CharsPerEstimatedPage
	if pages < 1 {
		pages = 1
	}
	return pages
}
