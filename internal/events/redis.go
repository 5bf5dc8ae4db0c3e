package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes events to Redis Pub/Sub, one channel per session.
type RedisPublisher struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewRedisPublisher creates a publisher on an existing client. The client is
// owned by the caller and is not closed by Close.
func NewRedisPublisher(redisClient *redis.Client, logger *slog.Logger) *RedisPublisher {
	return &RedisPublisher{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Channel is the Pub/Sub channel for a session.
func Channel(sessionID string) string {
	return fmt.Sprintf("session-events:%s", sessionID)
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	channel := Channel(event.SessionID)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)
	return nil
}

func (p *RedisPublisher) Close() error { return nil }
