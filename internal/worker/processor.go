package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/worldstate-engine/internal/events"
	"github.com/jwebster45206/worldstate-engine/internal/storage"
	"github.com/jwebster45206/worldstate-engine/pkg/anachronism"
	"github.com/jwebster45206/worldstate-engine/pkg/indicator"
	"github.com/jwebster45206/worldstate-engine/pkg/queue"
)

// HistoryValidator checks narrative text against a session's history.
type HistoryValidator interface {
	Validate(ctx context.Context, sessionID, narrative string) anachronism.Verdict
}

// SignalProcessor runs queued requests through the signal pipeline and
// publishes the results. It is used by the worker; the HTTP handlers call
// the same components synchronously.
type SignalProcessor struct {
	store     storage.ConversationLoader
	extractor *indicator.Extractor
	validator HistoryValidator
	publisher events.Publisher
	logger    *slog.Logger
}

// NewSignalProcessor creates a new processor. A nil publisher drops events.
func NewSignalProcessor(
	store storage.ConversationLoader,
	extractor *indicator.Extractor,
	validator HistoryValidator,
	publisher events.Publisher,
	logger *slog.Logger,
) *SignalProcessor {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &SignalProcessor{
		store:     store,
		extractor: extractor,
		validator: validator,
		publisher: publisher,
		logger:    logger,
	}
}

// Process handles one request. Publish failures are logged, not returned.
func (p *SignalProcessor) Process(ctx context.Context, req *queue.Request) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid request %s: %w", req.RequestID, err)
	}

	start := time.Now()
	log := p.logger.With("request_id", req.RequestID, "session_id", req.SessionID, "type", req.Type)

	switch req.Type {
	case queue.RequestTypeRefresh:
		history, err := p.store.LoadConversation(ctx, req.SessionID)
		if err != nil {
			return fmt.Errorf("failed to load conversation: %w", err)
		}
		state := p.extractor.Snapshot(ctx, history)
		events.PublishLogged(ctx, p.publisher, events.WorldStateUpdated(req.SessionID, req.RequestID, state), log)
		log.Info("World state refreshed",
			"state", state,
			"duration_ms", time.Since(start).Milliseconds())

	case queue.RequestTypeValidate:
		verdict := p.validator.Validate(ctx, req.SessionID, req.Narrative)
		events.PublishLogged(ctx, p.publisher, events.HistoryVerdict(req.SessionID, req.RequestID, verdict), log)
		log.Info("History validated",
			"intervene", verdict.Intervene,
			"suggestions", len(verdict.Suggestions),
			"duration_ms", time.Since(start).Milliseconds())
	}
	return nil
}
