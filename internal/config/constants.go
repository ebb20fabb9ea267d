package config

import "time"

const (
	// Upload limits
	MaxUploadBytes = 10 * 1024 * 1024 // 10MB, matches the upload endpoint contract

	// AI request timeout
	RequestTimeout = 90 * time.Second

	// Upstream sampling temperature
	Temperature = 0.7

	// Estimated characters per page for formats without intrinsic pagination
	CharsPerEstimatedPage = 3000

	// HTTP server timeouts
	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 10 * time.Second

	// Rate limit burst for the chat and upload endpoints
	RateLimitBurst = 10
)
