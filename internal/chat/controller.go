// Package chat sequences user turns end-to-end: optimistic history append,
// streaming session, citation finalization, durable persistence.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillview/pagetutor/internal/citation"
	"github.com/quillview/pagetutor/internal/domain"
	"github.com/quillview/pagetutor/internal/service"
	"github.com/quillview/pagetutor/internal/stream"
)

// ErrorMessageText is what a failed turn leaves in the conversation. Raw
// transport detail goes to the log, never to the user.
const ErrorMessageText = "The tutor could not respond. Please try again."

// ConversationStore is the durable, per-document message history the
// controller reads and writes.
type ConversationStore interface {
	Load(ctx context.Context, documentID string) ([]domain.Message, error)
	Append(ctx context.Context, documentID string, msg domain.Message) error
	Replace(ctx context.Context, documentID, messageID string, mutate func(*domain.Message)) error
	Delete(ctx context.Context, documentID string) error
}

// SessionEngine runs one streaming request/response cycle.
type SessionEngine interface {
	Run(ctx context.Context, req stream.Request, cb stream.Callbacks) (*stream.Result, error)
	Cancel()
}

// TurnCallbacks let a UI observe an in-flight turn. OnFirst fires when the
// first visible output exists; OnDelta fires per delta in arrival order.
type TurnCallbacks struct {
	OnFirst func()
	OnDelta func(delta string)
}

// Controller drives the conversation for one active document. All mutation
// of a conversation goes through exactly one Controller at a time.
type Controller struct {
	store  ConversationStore
	engine SessionEngine

	mu       sync.Mutex
	doc      *domain.Document
	messages []domain.Message
	waiting  bool
	active   bool
}

func NewController(store ConversationStore, engine SessionEngine) *Controller {
	return &Controller{store: store, engine: engine}
}

// SetDocument switches the active document, cancelling any in-flight
// session, and lazily loads the document's history.
func (c *Controller) SetDocument(ctx context.Context, doc *domain.Document) error {
	c.engine.Cancel()

	var messages []domain.Message
	if doc != nil {
		loaded, err := c.store.Load(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		messages = loaded
	}

	c.mu.Lock()
	c.doc = doc
	c.messages = messages
	c.waiting = false
	c.mu.Unlock()
	return nil
}

// Document returns the active document, if any.
func (c *Controller) Document() *domain.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

// History returns a copy of the in-memory conversation.
func (c *Controller) History() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Waiting reports whether a submitted turn has produced no visible output
// yet. It clears on the first delta, not at stream completion.
func (c *Controller) Waiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting
}

// Cancel abandons the in-flight session, if any. Partial content already
// flushed stays in the store as-is.
func (c *Controller) Cancel() {
	c.engine.Cancel()
}

// Submit runs one user turn. Empty or whitespace-only input, or a missing
// active document, is a no-op, not an error. A turn while another is in
// flight fails with ErrActiveRequest. The returned message is the final
// assistant message, or the synthesized error message on a failed stream.
func (c *Controller) Submit(ctx context.Context, input string, cb TurnCallbacks) (*domain.Message, error) {
	input = strings.TrimSpace(input)

	c.mu.Lock()
	if input == "" || c.doc == nil {
		c.mu.Unlock()
		return nil, nil
	}
	if c.active {
		c.mu.Unlock()
		return nil, domain.ErrActiveRequest
	}
	c.active = true
	c.waiting = true
	doc := c.doc

	userMsg := domain.Message{
		ID:      newMessageID(domain.RoleUser),
		Role:    domain.RoleUser,
		Content: input,
	}
	c.messages = append(c.messages, userMsg)
	turns := turnsLocked(c.messages)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.active = false
		c.waiting = false
		c.mu.Unlock()
	}()

	c.persistAppend(ctx, doc.ID, userMsg)

	var assistantID string

	result, err := c.engine.Run(ctx, stream.Request{
		DocumentID:  doc.ID,
		TextContent: doc.TextContent,
		Messages:    turns,
	}, stream.Callbacks{
		OnFirst: func() {
			assistantMsg := domain.Message{
				ID:   newMessageID(domain.RoleAssistant),
				Role: domain.RoleAssistant,
			}
			c.mu.Lock()
			c.waiting = false
			c.messages = append(c.messages, assistantMsg)
			assistantID = assistantMsg.ID
			c.mu.Unlock()

			c.persistAppend(ctx, doc.ID, assistantMsg)
			if cb.OnFirst != nil {
				cb.OnFirst()
			}
		},
		OnDelta: func(delta string) {
			c.applyDelta(ctx, doc.ID, assistantID, delta)
			if cb.OnDelta != nil {
				cb.OnDelta(delta)
			}
		},
	})

	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Abandoned on purpose; whatever was flushed stays as-is.
			return nil, nil
		}
		slog.Error("stream session failed", "document_id", doc.ID, "error", err)
		return c.appendErrorMessage(ctx, doc.ID), nil
	}

	return c.finalize(ctx, doc.ID, assistantID, result.Text), nil
}

// applyDelta grows the assistant message in place and flushes the updated
// conversation. Deltas apply exactly once, in arrival order.
func (c *Controller) applyDelta(ctx context.Context, documentID, assistantID, delta string) {
	c.mu.Lock()
	updateByID(c.messages, assistantID, func(m *domain.Message) {
		m.Content += delta
	})
	c.mu.Unlock()

	if err := c.store.Replace(ctx, documentID, assistantID, func(m *domain.Message) {
		m.Content += delta
	}); err != nil {
		slog.Warn("flush delta failed", "document_id", documentID, "error", err)
	}
}

// finalize runs citation extraction once over the complete text and attaches
// the result. Extraction is deferred to completion because a marker can
// straddle several deltas.
func (c *Controller) finalize(ctx context.Context, documentID, assistantID, text string) *domain.Message {
	citations := citation.Extract(text)

	var final domain.Message
	c.mu.Lock()
	updateByID(c.messages, assistantID, func(m *domain.Message) {
		m.Content = text
		m.Citations = citations
		final = *m
	})
	c.mu.Unlock()

	if err := c.store.Replace(ctx, documentID, assistantID, func(m *domain.Message) {
		m.Content = text
		m.Citations = citations
	}); err != nil {
		slog.Warn("persist final message failed", "document_id", documentID, "error", err)
	}
	return &final
}

// appendErrorMessage records a failed turn as its own message. The user's
// message stays untouched; no half-initialized assistant message is left
// behind when the failure arrived before the first delta.
func (c *Controller) appendErrorMessage(ctx context.Context, documentID string) *domain.Message {
	errMsg := domain.Message{
		ID:      newMessageID("error"),
		Role:    domain.RoleAssistant,
		Content: ErrorMessageText,
		IsError: true,
	}

	c.mu.Lock()
	c.messages = append(c.messages, errMsg)
	c.mu.Unlock()

	c.persistAppend(ctx, documentID, errMsg)
	return &errMsg
}

func (c *Controller) persistAppend(ctx context.Context, documentID string, msg domain.Message) {
	if err := c.store.Append(ctx, documentID, msg); err != nil {
		slog.Warn("persist message failed",
			"document_id", documentID, "message_id", msg.ID, "error", err)
	}
}

func turnsLocked(messages []domain.Message) []service.ChatTurn {
	turns := make([]service.ChatTurn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, service.ChatTurn{Role: m.Role, Content: m.Content})
	}
	return turns
}

func updateByID(messages []domain.Message, id string, mutate func(*domain.Message)) {
	for i := range messages {
		if messages[i].ID == id {
			mutate(&messages[i])
			return
		}
	}
}

func newMessageID(role string) string {
	return fmt.Sprintf("%s_%d_%s", role, time.Now().UnixMilli(), uuid.NewString()[:8])
}
