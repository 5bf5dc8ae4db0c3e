package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jwebster45206/worldstate-engine/pkg/queue"
)

// Enqueuer accepts background requests for the worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, req *queue.Request) error
}

type JobRequest struct {
	Type      queue.RequestType `json:"type"`
	Narrative string            `json:"narrative,omitempty"`
}

type JobResponse struct {
	RequestID string            `json:"request_id"`
	Type      queue.RequestType `json:"type"`
	SessionID string            `json:"session_id"`
}

type JobsHandler struct {
	queue  Enqueuer
	logger *slog.Logger
}

// NewJobsHandler creates the handler. A nil queue answers 503.
func NewJobsHandler(q Enqueuer, logger *slog.Logger) *JobsHandler {
	return &JobsHandler{queue: q, logger: logger}
}

// ServeHTTP handles POST /v1/sessions/{sessionID}/jobs
func (h *JobsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "Background jobs are not available")
		return
	}

	var body JobRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Type == "" {
		body.Type = queue.RequestTypeRefresh
	}

	req := queue.NewRequest(body.Type, chi.URLParam(r, "sessionID"), body.Narrative)
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.queue.Enqueue(r.Context(), req); err != nil {
		h.logger.Error("Failed to enqueue job", "error", err, "session_id", req.SessionID)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Failed to enqueue job")
		return
	}

	h.logger.Info("Job enqueued", "request_id", req.RequestID, "type", req.Type, "session_id", req.SessionID)
	writeJSON(w, h.logger, http.StatusAccepted, JobResponse{
		RequestID: req.RequestID,
		Type:      req.Type,
		SessionID: req.SessionID,
	})
}
