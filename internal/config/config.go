package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Server
	Port         int    `env:"PORT" envDefault:"3000"`
	OpenAIKey    string `env:"OPENAI_API_KEY"`
	OpenAIBase   string `env:"OPENAI_BASE_URL"`
	Model        string `env:"PAGETUTOR_MODEL" envDefault:"gpt-4o-mini"`
	RateLimitRPS float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`

	// Client
	DatabaseURL string `env:"DATABASE_URL"`
	ServerURL   string `env:"PAGETUTOR_SERVER_URL" envDefault:"http://localhost:3000"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
