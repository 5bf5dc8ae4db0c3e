package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jwebster45206/worldstate-engine/internal/events"
	"github.com/jwebster45206/worldstate-engine/pkg/anachronism"
)

type ValidateRequest struct {
	Narrative string `json:"narrative"`
}

// HistoryValidator judges a narrative against a session's era.
type HistoryValidator interface {
	Validate(ctx context.Context, sessionID, narrative string) anachronism.Verdict
}

type ValidateHandler struct {
	validator HistoryValidator
	publisher events.Publisher
	logger    *slog.Logger
}

func NewValidateHandler(validator HistoryValidator, publisher events.Publisher, logger *slog.Logger) *ValidateHandler {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &ValidateHandler{
		validator: validator,
		publisher: publisher,
		logger:    logger,
	}
}

// ServeHTTP handles POST /v1/sessions/{sessionID}/validate
func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid validate request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(req.Narrative) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "narrative is required")
		return
	}

	verdict := h.validator.Validate(r.Context(), sessionID, req.Narrative)
	h.logger.Info("History verdict",
		"session_id", sessionID,
		"intervene", verdict.Intervene,
		"suggestions", len(verdict.Suggestions),
		"queries", len(verdict.Queries))

	events.PublishLogged(r.Context(), h.publisher,
		events.HistoryVerdict(sessionID, middleware.GetReqID(r.Context()), verdict), h.logger)

	writeJSON(w, h.logger, http.StatusOK, verdict)
}
