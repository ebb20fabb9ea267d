// Package ingest turns an uploaded document into the page-marked text blob
// the tutor model receives as context.
package ingest

import (
	"fmt"
	"strings"

	"github.com/quillview/pagetutor/internal/domain"
)

// Chunk splits extracted text into totalPages ordered segments of roughly
// equal size. The split is proportional, not a reflection of true page
// boundaries in the source format, so page attribution is best-effort.
// The last segment absorbs any remainder from rounding.
func Chunk(text string, totalPages int) ([]domain.PageSegment, error) {
	if totalPages < 1 {
		return nil, fmt.Errorf("chunk into %d pages: %w", totalPages, domain.ErrInvalidPageCount)
	}

	charsPerPage := (len(text) + totalPages - 1) / totalPages

	segments := make([]domain.PageSegment, 0, totalPages)
	for i := 1; i <= totalPages; i++ {
		start := (i - 1) * charsPerPage
		end := i * charsPerPage
		if start > len(text) {
			start = len(text)
		}
		if end > len(text) {
			end = len(text)
		}
		segments = append(segments, domain.PageSegment{
			PageNumber: i,
			Text:       text[start:end],
		})
	}
	return segments, nil
}

// MarkedText wraps each segment with its page-boundary marker and joins them
// into one blob. The marker line is the only way the downstream model learns
// page numbers, so the format is fixed: a newline, "--- PAGE i ---", a
// newline, the segment text, a newline.
func MarkedText(segments []domain.PageSegment) string {
	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(fmt.Sprintf("\n--- PAGE %d ---\n", seg.PageNumber))
		b.WriteString(seg.Text)
		b.WriteString("\n")
	}
	return b.String()
}
