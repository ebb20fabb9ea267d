package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/quillview/pagetutor/internal/config"
)

// ChatTurn is one prior turn sent upstream, role and text only.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatStreamer streams tutor completions from an OpenAI-compatible API.
type ChatStreamer struct {
	client *openai.Client
	model  string
}

func NewChatStreamer(apiKey, baseURL, model string) *ChatStreamer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &ChatStreamer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// StreamChat sends the system prompt plus history upstream and invokes emit
// for every content delta, in arrival order. It returns once the upstream
// stream finishes or fails; an emit error aborts the stream (the consumer
// went away).
func (s *ChatStreamer) StreamChat(ctx context.Context, system string, turns []ChatTurn, emit func(delta string) error) error {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, turn := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	stream, err := s.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: config.Temperature,
		Stream:      true,
	})
	if err != nil {
		return fmt.Errorf("open completion stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("receive completion delta: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := emit(delta); err != nil {
			return err
		}
	}
}
