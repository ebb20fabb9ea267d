package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quillview/pagetutor/internal/config"
	"github.com/quillview/pagetutor/internal/service"
)

type chatRequest struct {
	Messages    []service.ChatTurn `json:"messages"`
	DocumentID  string             `json:"documentId"`
	TextContent string             `json:"textContent"`
}

// handleChat streams a tutor response as SSE. The request carries the full
// prior history and the document's page-marked text; nothing about the
// conversation is kept server-side between turns.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	textContent := ""
	if req.DocumentID != "" {
		textContent = req.TextContent
	}
	system := service.TutorPrompt(textContent)

	w, err := newSSEWriter(c.Writer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), config.RequestTimeout)
	defer cancel()

	streamErr := s.streamer.StreamChat(ctx, system, req.Messages, func(delta string) error {
		return w.token(delta)
	})
	if streamErr != nil {
		slog.Error("chat stream failed", "document_id", req.DocumentID, "error", streamErr)
		// Internal detail stays in the log; the client gets one readable line.
		_ = w.fail("The AI tutor is unavailable right now. Please try again.")
		return
	}

	if err := w.done(); err != nil {
		slog.Debug("client gone before completion frame", "error", err)
	}
}
