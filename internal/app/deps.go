package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"tailortalk/internal/cache"
	"tailortalk/internal/charts"
	"tailortalk/internal/config"
	"tailortalk/internal/dataset"
	"tailortalk/internal/llm"
	"tailortalk/internal/logger"
	"tailortalk/internal/queue"
	"tailortalk/internal/store"
)

// Deps bundles common runtime dependencies for services.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Dataset  *dataset.Dataset
	Store    store.Store
	Cache    cache.Cache
	Queue    queue.Queue
	Renderer *charts.Renderer
	LLM      llm.Client
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Debug)

	ds, err := dataset.Load(filepath.Join(cfg.DataDir, "titanic.csv"))
	if err != nil {
		return Deps{}, fmt.Errorf("failed to load dataset: %w", err)
	}
	log.Info("dataset loaded", "passengers", ds.Len())

	st, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	c, err := buildCache(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	renderer, err := charts.NewRenderer(cfg.VisualizationsDir)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize chart renderer: %w", err)
	}
	llmClient, err := buildLLM(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return Deps{
		Config:   cfg,
		Log:      log,
		Dataset:  ds,
		Store:    st,
		Cache:    c,
		Queue:    q,
		Renderer: renderer,
		LLM:      llmClient,
	}, nil
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Info("DATABASE_URL not set; using in-memory store")
		return store.NewMemory(), nil
	}
	db, err := store.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
	}
	log.Info("using Postgres store")
	return db, nil
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set; answer caching disabled")
		return cache.NewNoOpCache(), nil
	}
	c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	log.Info("using Redis answer cache", "ttl_seconds", cfg.CacheTTL)
	return c, nil
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	case "memory":
		log.Info("using in-process queue")
		return queue.NewMemory(log), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid options: memory, nats)", cfg.QueueProvider)
	}
}

func buildLLM(cfg config.Config, log *slog.Logger) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
		client, err := llm.NewOpenAIClient(cfg.OpenAIKey, cfg.LLMModel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		log.Info("using OpenAI LLM client", "model", cfg.LLMModel)
		return client, nil
	case "openrouter":
		if cfg.OpenRouterKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY is required when LLM_PROVIDER=openrouter")
		}
		client, err := llm.NewOpenRouterClient(cfg.OpenRouterKey, cfg.LLMModel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenRouter client: %w", err)
		}
		log.Info("using OpenRouter LLM client", "model", cfg.LLMModel)
		return client, nil
	case "rule":
		log.Info("using offline rule-based interpreter")
		return llm.NewRuleClient(), nil
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: rule, openai, openrouter)", cfg.LLMProvider)
	}
}
