package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jwebster45206/worldstate-engine/pkg/anachronism"
	"github.com/jwebster45206/worldstate-engine/pkg/indicator"
)

// EventType represents the type of event being published
type EventType string

const (
	EventTypeWorldStateUpdated EventType = "world_state.updated"
	EventTypeHistoryVerdict    EventType = "history.verdict"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	RequestID string         `json:"request_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// WorldStateUpdated carries a fresh snapshot and its labels.
func WorldStateUpdated(sessionID, requestID string, state indicator.WorldState) Event {
	return Event{
		Type:      EventTypeWorldStateUpdated,
		SessionID: sessionID,
		RequestID: requestID,
		Data: map[string]any{
			"state":  state,
			"labels": state.Labels(),
		},
	}
}

// HistoryVerdict carries a validator verdict.
func HistoryVerdict(sessionID, requestID string, verdict anachronism.Verdict) Event {
	return Event{
		Type:      EventTypeHistoryVerdict,
		SessionID: sessionID,
		RequestID: requestID,
		Data:      map[string]any{"verdict": verdict},
	}
}

// Publisher pushes session events to whoever renders them.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event Event) error { return nil }
func (NoopPublisher) Close() error                                  { return nil }

// PublishLogged publishes an event and logs, rather than returns, a failure.
func PublishLogged(ctx context.Context, p Publisher, event Event, logger *slog.Logger) {
	if err := p.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish event",
			"error", err,
			"event_type", event.Type,
			"session_id", event.SessionID)
	}
}

// Recorder keeps published events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of what has been published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

var (
	_ Publisher = NoopPublisher{}
	_ Publisher = (*Recorder)(nil)
)
