package domain

import (
	"time"
)

// Document is an ingested source text with its page count and identity.
// Immutable once created.
type Document struct {
	ID          string
	Name        string
	TotalPages  int
	TextContent string // page-marked blob, see ingest.MarkedText
	CreatedAt   time.Time
}

// PageSegment is one proportionally split slice of a document's text,
// labeled with a 1-based page number. Segments are contiguous and
// non-overlapping; their concatenation equals the full extracted text.
type PageSegment struct {
	PageNumber int
	Text       string
}
