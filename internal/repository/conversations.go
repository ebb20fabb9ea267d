package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillview/pagetutor/internal/domain"
)

// ConversationStore keeps one row per document holding the entire ordered
// message sequence as JSONB. Every mutation rewrites the whole value, so a
// reader always sees a complete conversation, never a partial write.
type ConversationStore struct {
	db *pgxpool.Pool
}

func NewConversationStore(db *pgxpool.Pool) *ConversationStore {
	return &ConversationStore{db: db}
}

// Load returns the conversation for a document, oldest first. A missing row
// is an empty conversation. A corrupt stored value is logged and treated as
// empty: lost history must never take down the session.
func (s *ConversationStore) Load(ctx context.Context, documentID string) ([]domain.Message, error) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		`SELECT messages FROM conversations WHERE document_id = $1`,
		documentID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []domain.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	var messages []domain.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		slog.Warn("corrupt conversation record, starting empty",
			"document_id", documentID, "error", err)
		return []domain.Message{}, nil
	}
	return messages, nil
}

// Append inserts a message at the end of the conversation and persists the
// full updated sequence.
func (s *ConversationStore) Append(ctx context.Context, documentID string, msg domain.Message) error {
	messages, err := s.Load(ctx, documentID)
	if err != nil {
		return err
	}
	return s.save(ctx, documentID, append(messages, msg))
}

// Replace locates a message by id, applies mutate, and persists. A missing
// id is not an error: a late update for a message that was since removed is
// logged and dropped.
func (s *ConversationStore) Replace(ctx context.Context, documentID, messageID string, mutate func(*domain.Message)) error {
	messages, err := s.Load(ctx, documentID)
	if err != nil {
		return err
	}

	found := false
	for i := range messages {
		if messages[i].ID == messageID {
			mutate(&messages[i])
			found = true
			break
		}
	}
	if !found {
		slog.Debug("replace on absent message, dropping update",
			"document_id", documentID, "message_id", messageID)
		return nil
	}
	return s.save(ctx, documentID, messages)
}

// Delete removes the entire conversation for a document. Deleting a
// conversation that does not exist is a no-op.
func (s *ConversationStore) Delete(ctx context.Context, documentID string) error {
	if _, err := s.db.Exec(ctx,
		`DELETE FROM conversations WHERE document_id = $1`, documentID,
	); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func (s *ConversationStore) save(ctx context.Context, documentID string, messages []domain.Message) error {
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}

	if _, err := s.db.Exec(ctx, `
		INSERT INTO conversations (document_id, messages, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (document_id)
		DO UPDATE SET messages = EXCLUDED.messages, updated_at = now()`,
		documentID, raw,
	); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}
