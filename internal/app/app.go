package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/worldstate-engine/internal/config"
	"github.com/jwebster45206/worldstate-engine/internal/events"
	"github.com/jwebster45206/worldstate-engine/internal/search"
	"github.com/jwebster45206/worldstate-engine/internal/services"
	"github.com/jwebster45206/worldstate-engine/internal/services/queue"
	"github.com/jwebster45206/worldstate-engine/internal/storage"
	"github.com/jwebster45206/worldstate-engine/pkg/anachronism"
	"github.com/jwebster45206/worldstate-engine/pkg/indicator"
)

// App holds the wired components shared by the API server and the CLI.
type App struct {
	Config    *config.Config
	Store     storage.ConversationStore
	Publisher events.Publisher
	LLM       services.LLMService
	Balance   BalanceProvider
	Extractor *indicator.Extractor
	Validator *anachronism.Validator
	Logger    *slog.Logger

	redis     *redis.Client
	ownsRedis bool
}

// BalanceProvider is implemented by providers with a credit endpoint.
type BalanceProvider interface {
	Balance(ctx context.Context) (float64, error)
}

// New wires every component from configuration. Missing LLM credentials
// are not an error: the signal pipeline then answers with unknown values.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	llm, err := services.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	if !cfg.LLMConfigured() {
		logger.Warn("LLM is not configured; indicators will report unknown values",
			"provider", cfg.LLMProvider)
	}

	store, err := NewStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	searcher := search.NewChain(logger,
		search.NewDuckDuckGoHTML("", cfg.SearchTimeout),
		search.NewDuckDuckGoInstant("", cfg.SearchTimeout),
	)

	a := &App{
		Config:    cfg,
		Store:     store,
		LLM:       llm,
		Extractor: indicator.NewExtractor(services.NewClassificationClient(llm, cfg.ClassifyTimeout, logger), logger),
		Validator: anachronism.NewValidator(store, services.NewHelperCompleter(llm), searcher, logger,
			anachronism.WithTimeout(cfg.ValidateTimeout),
			anachronism.WithDebug(cfg.HistoryDebug)),
		Logger: logger,
	}
	if b, ok := llm.(BalanceProvider); ok {
		a.Balance = b
	}

	a.Publisher, err = NewPublisher(cfg, a.Redis, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

// Redis returns the client shared by the Redis-backed components: the
// store's own client when the store is Redis, otherwise one opened from
// REDIS_URL on first use.
func (a *App) Redis() *redis.Client {
	if a.redis != nil {
		return a.redis
	}
	if rs, ok := a.Store.(*storage.RedisStore); ok {
		a.redis = rs.Client()
		return a.redis
	}
	a.redis = storage.NewRedisClient(a.Config.RedisURL)
	a.ownsRedis = true
	return a.redis
}

// Queue returns the background request queue.
func (a *App) Queue() *queue.RequestQueue {
	return queue.NewRequestQueue(a.Redis())
}

// NewStore opens the configured conversation store.
func NewStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ConversationStore, error) {
	switch strings.ToLower(cfg.StoreBackend) {
	case "redis", "":
		return storage.NewRedisStore(cfg.RedisURL, logger), nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres store")
		}
		return storage.NewPostgresStore(ctx, cfg.DatabaseURL, logger)
	default:
		return nil, fmt.Errorf("unsupported store backend %q (supported: redis, postgres)", cfg.StoreBackend)
	}
}

// NewPublisher opens the configured event publisher. redisClient is only
// called for the redis backend.
func NewPublisher(cfg *config.Config, redisClient func() *redis.Client, logger *slog.Logger) (events.Publisher, error) {
	switch strings.ToLower(cfg.EventsBackend) {
	case "none", "":
		return events.NoopPublisher{}, nil
	case "nats":
		return events.NewNATSPublisher(cfg.NatsURL, cfg.NatsToken, logger)
	case "redis":
		return events.NewRedisPublisher(redisClient(), logger), nil
	default:
		return nil, fmt.Errorf("unsupported events backend %q (supported: none, nats, redis)", cfg.EventsBackend)
	}
}

// Close releases the store, the publisher and any Redis client opened
// for them.
func (a *App) Close() error {
	var redisErr error
	if a.ownsRedis {
		redisErr = a.redis.Close()
	}
	return errors.Join(a.Publisher.Close(), a.Store.Close(), redisErr)
}
