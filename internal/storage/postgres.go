package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jwebster45206/worldstate-engine/pkg/chat"
)

// Schema creates the conversation table when it does not exist.
const Schema = `
CREATE TABLE IF NOT EXISTS conversation_messages (
	id             BIGSERIAL PRIMARY KEY,
	session_id     TEXT        NOT NULL,
	role           TEXT        NOT NULL,
	content        TEXT        NOT NULL,
	estimated_date TEXT        NOT NULL DEFAULT '',
	input_tokens   INTEGER,
	output_tokens  INTEGER,
	objective_time INTEGER,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS conversation_messages_session_idx
	ON conversation_messages (session_id, id);
`

// PostgresStore keeps conversations in a single ordered table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ ConversationStore = (*PostgresStore)(nil)

// NewPostgresStore connects, pings, and applies Schema.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) LoadConversation(ctx context.Context, sessionID string) ([]chat.Message, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	rows, err := s.pool.Query(ctx, `
		SELECT role, content, estimated_date, input_tokens, output_tokens, objective_time
		FROM conversation_messages
		WHERE session_id = $1
		ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	defer rows.Close()

	msgs := []chat.Message{}
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.Role, &m.Content, &m.EstimatedDate, &m.InputTokens, &m.OutputTokens, &m.ObjectiveTime); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, sessionID string, msg chat.Message) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var history []chat.Message
	if msg.ObjectiveTime == nil {
		var last *int
		err := tx.QueryRow(ctx, `
			SELECT objective_time FROM conversation_messages
			WHERE session_id = $1 AND objective_time IS NOT NULL
			ORDER BY id DESC LIMIT 1`, sessionID).Scan(&last)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("read objective time: %w", err)
		}
		if last != nil {
			history = []chat.Message{{ObjectiveTime: last}}
		}
	}

	msg, err = prepareAppend(sessionID, history, msg)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO conversation_messages
			(session_id, role, content, estimated_date, input_tokens, output_tokens, objective_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sessionID, msg.Role, msg.Content, msg.EstimatedDate, msg.InputTokens, msg.OutputTokens, msg.ObjectiveTime,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) DeleteConversation(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM conversation_messages WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}
