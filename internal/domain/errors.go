package domain

import "errors"

var (
	ErrInvalidPageCount  = errors.New("page count must be at least 1")
	ErrEmptyDocument     = errors.New("document contains no extractable text")
	ErrDocumentTooLarge  = errors.New("document exceeds size limit")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrActiveRequest     = errors.New("active request exists")
	ErrNoDocument        = errors.New("no active document")
)
