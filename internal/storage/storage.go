package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwebster45206/worldstate-engine/pkg/chat"
)

// ErrEmptySessionID is returned when a session id is blank.
var ErrEmptySessionID = errors.New("session id cannot be empty")

// ConversationLoader is the read-only view the signal pipeline needs.
type ConversationLoader interface {
	// LoadConversation returns the session's records, oldest first. An
	// unknown session is an empty conversation, not an error.
	LoadConversation(ctx context.Context, sessionID string) ([]chat.Message, error)
}

// ConversationStore is the full store used by the API and CLI.
type ConversationStore interface {
	ConversationLoader

	AppendMessage(ctx context.Context, sessionID string, msg chat.Message) error
	DeleteConversation(ctx context.Context, sessionID string) error

	// Health and lifecycle methods
	Ping(ctx context.Context) error
	Close() error
}

// LatestObjectiveTime returns the objective time of the newest record that
// carries one, or 0 when none does.
func LatestObjectiveTime(msgs []chat.Message) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ObjectiveTime != nil {
			return *msgs[i].ObjectiveTime
		}
	}
	return 0
}

// ObjectiveTurnSeconds is how far objective time advances per stored turn.
const ObjectiveTurnSeconds = 60

// prepareAppend validates msg and stamps its objective time when missing.
func prepareAppend(sessionID string, history []chat.Message, msg chat.Message) (chat.Message, error) {
	if sessionID == "" {
		return msg, ErrEmptySessionID
	}
	if err := msg.Validate(); err != nil {
		return msg, fmt.Errorf("invalid message: %w", err)
	}
	if msg.ObjectiveTime == nil {
		msg.ObjectiveTime = chat.IntPtr(LatestObjectiveTime(history) + ObjectiveTurnSeconds)
	}
	return msg, nil
}
