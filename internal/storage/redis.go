package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/worldstate-engine/pkg/chat"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each conversation as a Redis list of JSON records.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStore implements ConversationStore interface
var _ ConversationStore = (*RedisStore)(nil)

// NewRedisStore creates a Redis store. redisURL is either a redis:// URL
// or a bare host:port address.
func NewRedisStore(redisURL string, logger *slog.Logger) *RedisStore {
	return NewRedisStoreFromClient(NewRedisClient(redisURL), logger)
}

// NewRedisClient builds a client from a redis:// URL or a host:port address.
func NewRedisClient(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	return redis.NewClient(opts)
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, logger *slog.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

// Client exposes the underlying client so the event publisher can share it.
func (r *RedisStore) Client() *redis.Client {
	return r.client
}

func conversationKey(sessionID string) string {
	return "conversation:" + sessionID
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStore) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (r *RedisStore) LoadConversation(ctx context.Context, sessionID string) ([]chat.Message, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	raw, err := r.client.LRange(ctx, conversationKey(sessionID), 0, -1).Result()
	if err != nil {
		r.logger.Error("Failed to load conversation", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	msgs := make([]chat.Message, 0, len(raw))
	for i, item := range raw {
		var msg chat.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %d: %w", i, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (r *RedisStore) AppendMessage(ctx context.Context, sessionID string, msg chat.Message) error {
	key := conversationKey(sessionID)

	var history []chat.Message
	if msg.ObjectiveTime == nil && sessionID != "" {
		last, err := r.client.LRange(ctx, key, -1, -1).Result()
		if err != nil {
			return fmt.Errorf("failed to read last record: %w", err)
		}
		for _, item := range last {
			var m chat.Message
			if err := json.Unmarshal([]byte(item), &m); err == nil {
				history = append(history, m)
			}
		}
	}

	msg, err := prepareAppend(sessionID, history, msg)
	if err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := r.client.RPush(ctx, key, data).Err(); err != nil {
		r.logger.Error("Failed to append message", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteConversation(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if err := r.client.Del(ctx, conversationKey(sessionID)).Err(); err != nil {
		r.logger.Error("Failed to delete conversation", "session_id", sessionID, "error", err)
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}
