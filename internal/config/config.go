package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for both services. Extend as needed.
type Config struct {
	// Backend server
	APIHost  string `env:"API_HOST" envDefault:"0.0.0.0"`
	APIPort  int    `env:"API_PORT" envDefault:"8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Debug    bool   `env:"DEBUG" envDefault:"false"`

	// Frontend server
	FrontendPort int    `env:"FRONTEND_PORT" envDefault:"8501"`
	BackendURL   string `env:"BACKEND_URL" envDefault:"http://localhost:8000"`

	// Dataset & visualizations
	DataDir           string `env:"DATA_DIR" envDefault:"./data"`
	VisualizationsDir string `env:"VISUALIZATIONS_DIR" envDefault:"./data/visualizations"`

	// Chat history store: Postgres when DATABASE_URL is set, in-memory otherwise.
	DatabaseURL string `env:"DATABASE_URL"`

	// Answer cache: Redis when REDIS_ADDR is set, no-op otherwise.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"300"` // seconds

	// Transcript queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"memory"` // "memory" or "nats"
	QueueURL      string `env:"QUEUE_URL"`

	// LLM
	LLMProvider   string `env:"LLM_PROVIDER" envDefault:"rule"` // "rule", "openai" or "openrouter"
	LLMModel      string `env:"LLM_MODEL"`
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenRouterKey string `env:"OPENROUTER_API_KEY"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
