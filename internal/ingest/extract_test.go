package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillview/pagetutor/internal/config"
	"github.com/quillview/pagetutor/internal/domain"
)

func TestExtractPlainText(t *testing.T) {
	text, pages, err := Extract("notes.txt", []byte("just some notes"))

	require.NoError(t, err)
	assert.Equal(t, "just some notes", text)
	assert.Equal(t, 1, pages)
}

func TestExtractPlainTextEstimatesPages(t *testing.T) {
	long := strings.Repeat("a", config.CharsPerEstimatedPage*2+1)

	_, pages, err := Extract("big.txt", []byte(long))

	require.NoError(t, err)
	assert.Equal(t, 3, pages)
}

func TestExtractHTML(t *testing.T) {
	html := `<html><head><style>.x{color:red}</style></head>
<body><h1>Title</h1><script>alert(1)</script><p>Body text.</p></body></html>`

	text, pages, err := Extract("page.html", []byte(html))

	require.NoError(t, err)
	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "Body text.")
	assert.NotContains(t, text, "alert(1)")
	assert.NotContains(t, text, "color:red")
	assert.Equal(t, 1, pages)
}

func TestExtractEmptyPayload(t *testing.T) {
	_, _, err := Extract("empty.txt", nil)

	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestExtractTooLarge(t *testing.T) {
	_, _, err := Extract("huge.txt", bytes.Repeat([]byte("a"), config.MaxUploadBytes+1))

	assert.ErrorIs(t, err, domain.ErrDocumentTooLarge)
}

func TestExtractBinaryGarbage(t *testing.T) {
	_, _, err := Extract("blob.bin", []byte{0xff, 0xfe, 0x00, 0x80})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}
