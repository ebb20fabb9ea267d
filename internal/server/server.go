// Package server exposes the ingestion and streaming chat HTTP API.
package server

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/quillview/pagetutor/internal/config"
	"github.com/quillview/pagetutor/internal/service"
)

// ChatStreamer produces tutor response deltas for a prompt and history.
type ChatStreamer interface {
	StreamChat(ctx context.Context, system string, turns []service.ChatTurn, emit func(delta string) error) error
}

type Server struct {
	cfg      *config.Config
	streamer ChatStreamer
}

func New(cfg *config.Config, streamer ChatStreamer) *Server {
	return &Server{cfg: cfg, streamer: streamer}
}

func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(Recovery(), RequestLogger(), RateLimit(s.cfg.RateLimitRPS, config.RateLimitBurst))

	r.POST("/api/upload", s.handleUpload)
	r.POST("/api/chat", s.handleChat)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
