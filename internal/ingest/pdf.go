package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/quillview/pagetutor/internal/domain"
)

// extractPDF returns the concatenated text of every page and the document's
// real page count. Pages that fail text extraction are skipped; a PDF where
// no page yields text is treated as unreadable.
func extractPDF(data []byte) (string, int, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("parse pdf: %w", domain.ErrUnsupportedFormat)
	}

	totalPages := reader.NumPage()
	if totalPages < 1 {
		return "", 0, fmt.Errorf("pdf has no pages: %w", domain.ErrEmptyDocument)
	}

	var b strings.Builder
	extracted := false
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			extracted = true
		}
		b.WriteString(text)
	}

	if !extracted {
		return "", 0, fmt.Errorf("pdf yielded no text: %w", domain.ErrEmptyDocument)
	}
	return b.String(), totalPages, nil
}
