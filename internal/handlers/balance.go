package handlers

import (
	"context"
	"log/slog"
	"net/http"
)

// BalanceProvider reports remaining provider credit.
type BalanceProvider interface {
	Balance(ctx context.Context) (float64, error)
}

type BalanceResponse struct {
	Balance float64 `json:"balance"`
}

type BalanceHandler struct {
	provider BalanceProvider
	logger   *slog.Logger
}

// NewBalanceHandler creates the handler. provider may be nil when the
// configured LLM provider has no credit endpoint.
func NewBalanceHandler(provider BalanceProvider, logger *slog.Logger) *BalanceHandler {
	return &BalanceHandler{provider: provider, logger: logger}
}

// ServeHTTP handles GET /v1/balance
func (h *BalanceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "Balance is not available for this provider")
		return
	}

	balance, err := h.provider.Balance(r.Context())
	if err != nil {
		h.logger.Warn("Failed to fetch balance", "error", err)
		writeError(w, h.logger, http.StatusServiceUnavailable, "Balance is unavailable")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, BalanceResponse{Balance: balance})
}
