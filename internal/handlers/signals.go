package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jwebster45206/worldstate-engine/internal/events"
	"github.com/jwebster45206/worldstate-engine/internal/storage"
	"github.com/jwebster45206/worldstate-engine/pkg/chat"
	"github.com/jwebster45206/worldstate-engine/pkg/indicator"
)

type IndicatorResponse struct {
	Signal string `json:"signal"`
	Value  int    `json:"value"`
	Label  string `json:"label"`
}

type WorldStateResponse struct {
	SessionID string                      `json:"session_id"`
	State     indicator.WorldState        `json:"state"`
	Labels    map[indicator.Signal]string `json:"labels"`
}

// SignalsHandler serves the world-state indicators of a session.
type SignalsHandler struct {
	extractor *indicator.Extractor
	store     storage.ConversationLoader
	publisher events.Publisher
	logger    *slog.Logger
}

func NewSignalsHandler(extractor *indicator.Extractor, store storage.ConversationLoader, publisher events.Publisher, logger *slog.Logger) *SignalsHandler {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &SignalsHandler{
		extractor: extractor,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// history loads a conversation. A store failure is treated as an empty
// history, which every signal answers with its unknown value.
func (h *SignalsHandler) history(r *http.Request, sessionID string) []chat.Message {
	msgs, err := h.store.LoadConversation(r.Context(), sessionID)
	if err != nil {
		h.logger.Warn("Failed to load conversation", "session_id", sessionID, "error", err)
		return nil
	}
	return msgs
}

// Indicator handles GET /v1/sessions/{sessionID}/indicators/{signal}
func (h *SignalsHandler) Indicator(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sig, err := indicator.ParseSignal(chi.URLParam(r, "signal"))
	if err != nil {
		writeError(w, h.logger, http.StatusNotFound, err.Error())
		return
	}

	value, err := h.extractor.Extract(r.Context(), sig, h.history(r, sessionID))
	if err != nil {
		h.logger.Error("Failed to extract signal", "signal", sig, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to extract signal")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, IndicatorResponse{
		Signal: string(sig),
		Value:  value,
		Label:  indicator.Label(sig, value),
	})
}

// WorldState handles GET /v1/sessions/{sessionID}/world-state
func (h *SignalsHandler) WorldState(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	state := h.extractor.Snapshot(r.Context(), h.history(r, sessionID))
	labels := state.Labels()

	events.PublishLogged(r.Context(), h.publisher,
		events.WorldStateUpdated(sessionID, middleware.GetReqID(r.Context()), state), h.logger)

	writeJSON(w, h.logger, http.StatusOK, WorldStateResponse{
		SessionID: sessionID,
		State:     state,
		Labels:    labels,
	})
}

type TokensResponse struct {
	SessionID    string `json:"session_id"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Tokens handles GET /v1/sessions/{sessionID}/tokens
func (h *SignalsHandler) Tokens(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	msgs, err := h.store.LoadConversation(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to load conversation", "session_id", sessionID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load conversation")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, TokensResponse{
		SessionID:    sessionID,
		InputTokens:  chat.TotalInputTokens(msgs),
		OutputTokens: chat.TotalOutputTokens(msgs),
	})
}
