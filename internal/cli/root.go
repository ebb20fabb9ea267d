// Package cli implements the pagetutor terminal client.
package cli

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	pagetutor "github.com/quillview/pagetutor"
	"github.com/quillview/pagetutor/internal/chat"
	"github.com/quillview/pagetutor/internal/config"
	"github.com/quillview/pagetutor/internal/domain"
	"github.com/quillview/pagetutor/internal/repository"
)

var rootCmd = &cobra.Command{
	Use:           "pagetutor",
	Short:         "Chat with an AI tutor about your documents",
	Long:          `Upload a document, then converse about it. Every answer that draws on document content carries a [Page N] citation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// DocumentStore is the registry of ingested documents on the client side.
type DocumentStore interface {
	Save(ctx context.Context, doc domain.Document) error
	Get(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
	Delete(ctx context.Context, id string) error
}

// app bundles the configured stores for one command invocation. Without
// DATABASE_URL the stores are in-memory, which makes single commands like
// upload pointless to persist; chat still works for the session.
type app struct {
	cfg   *config.Config
	docs  DocumentStore
	convs chat.ConversationStore
	pool  *pgxpool.Pool
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, history will not survive this process")
		a.docs = repository.NewMemoryDocumentStore()
		a.convs = repository.NewMemoryConversationStore()
		return a, nil
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	migrationsFS, err := fs.Sub(pagetutor.MigrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	a.pool = pool
	a.docs = repository.NewDocumentStore(pool)
	a.convs = repository.NewConversationStore(pool)
	return a, nil
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
