package repository

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/quillview/pagetutor/internal/domain"
)

// MemoryConversationStore mirrors ConversationStore semantics without a
// database. Used by tests and by runs without DATABASE_URL configured;
// history then lives only for the lifetime of the process.
type MemoryConversationStore struct {
	mu            sync.Mutex
	conversations map[string][]domain.Message
}

func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{conversations: make(map[string][]domain.Message)}
}

func (s *MemoryConversationStore) Load(_ context.Context, documentID string) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.conversations[documentID]
	messages := make([]domain.Message, len(stored))
	copy(messages, stored)
	return messages, nil
}

func (s *MemoryConversationStore) Append(_ context.Context, documentID string, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[documentID] = append(s.conversations[documentID], msg)
	return nil
}

func (s *MemoryConversationStore) Replace(_ context.Context, documentID, messageID string, mutate func(*domain.Message)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := s.conversations[documentID]
	for i := range messages {
		if messages[i].ID == messageID {
			mutate(&messages[i])
			return nil
		}
	}
	slog.Debug("replace on absent message, dropping update",
		"document_id", documentID, "message_id", messageID)
	return nil
}

func (s *MemoryConversationStore) Delete(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, documentID)
	return nil
}

// MemoryDocumentStore is the in-process counterpart of DocumentStore.
type MemoryDocumentStore struct {
	mu        sync.Mutex
	documents map[string]domain.Document
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{documents: make(map[string]domain.Document)}
}

func (s *MemoryDocumentStore) Save(_ context.Context, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
	return nil
}

func (s *MemoryDocumentStore) Get(_ context.Context, id string) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return &doc, nil
}

func (s *MemoryDocumentStore) List(_ context.Context) ([]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		doc.TextContent = ""
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

func (s *MemoryDocumentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(s.documents, id)
	return nil
}
