package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillview/pagetutor/internal/domain"
)

// DocumentStore is the registry of ingested documents. The page-marked text
// blob is stored alongside the metadata because the chat endpoint requires
// the full text resent on every turn.
type DocumentStore struct {
	db *pgxpool.Pool
}

func NewDocumentStore(db *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) Save(ctx context.Context, doc domain.Document) error {
	if _, err := s.db.Exec(ctx, `
		INSERT INTO documents (id, name, total_pages, text_content, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.Name, doc.TotalPages, doc.TextContent, doc.CreatedAt,
	); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	err := s.db.QueryRow(ctx, `
		SELECT id, name, total_pages, text_content, created_at
		FROM documents WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.Name, &doc.TotalPages, &doc.TextContent, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// List returns all documents, most recent first, without their text blobs.
func (s *DocumentStore) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, total_pages, created_at
		FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.TotalPages, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Delete removes a document and its conversation in one transaction.
// Deleting a document must always take its chat history with it.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM conversations WHERE document_id = $1`, id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}
