package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings, populated from the environment.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// LLM provider for automated players: "anthropic", "venice" or
	// "ollama".
	LLMProvider     string `env:"LLM_PROVIDER" envDefault:"ollama"`
	ModelName       string `env:"MODEL_NAME" envDefault:"llama3"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	VeniceAPIKey    string `env:"VENICE_API_KEY"`
	OllamaURL       string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`

	RedisURL string `env:"REDIS_URL" envDefault:"localhost:6379"`

	// PromptsFile optionally overrides the built-in game wording.
	PromptsFile string `env:"PROMPTS_FILE"`

	// QueueSize bounds each player's inbound answer queue.
	QueueSize int `env:"SESSION_QUEUE_SIZE" envDefault:"8"`

	// SessionRetention is how long a finished or stopped session stays
	// queryable before the manager drops it.
	SessionRetention time.Duration `env:"SESSION_RETENTION" envDefault:"10m"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured level string to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
