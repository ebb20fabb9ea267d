package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillview/pagetutor/internal/config"
	"github.com/quillview/pagetutor/internal/domain"
	"github.com/quillview/pagetutor/internal/repository"
)

func newTestApp() *app {
	return &app{
		cfg:   &config.Config{},
		docs:  repository.NewMemoryDocumentStore(),
		convs: repository.NewMemoryConversationStore(),
	}
}

func TestResolveDocumentEmptyRegistry(t *testing.T) {
	chatDocID = ""
	a := newTestApp()

	_, err := resolveDocument(context.Background(), a)
	assert.ErrorIs(t, err, domain.ErrNoDocument)
}

func TestResolveDocumentMostRecentWithFullText(t *testing.T) {
	chatDocID = ""
	a := newTestApp()
	ctx := context.Background()

	older := domain.Document{ID: "a", Name: "old.txt", TotalPages: 1,
		TextContent: "\n--- PAGE 1 ---\nold\n", CreatedAt: time.Now().Add(-time.Hour)}
	newer := domain.Document{ID: "b", Name: "new.txt", TotalPages: 1,
		TextContent: "\n--- PAGE 1 ---\nnew\n", CreatedAt: time.Now()}
	require.NoError(t, a.docs.Save(ctx, older))
	require.NoError(t, a.docs.Save(ctx, newer))

	doc, err := resolveDocument(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "b", doc.ID)
	// List strips text blobs; resolve must hand back the full record.
	assert.Equal(t, "\n--- PAGE 1 ---\nnew\n", doc.TextContent)
}

func TestResolveDocumentByIDMissing(t *testing.T) {
	chatDocID = "ghost"
	defer func() { chatDocID = "" }()
	a := newTestApp()

	_, err := resolveDocument(context.Background(), a)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}
