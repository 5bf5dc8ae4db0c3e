package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jwebster45206/worldstate-engine/internal/config"
)

// ErrNotConfigured is returned when a provider has no API key or model to call.
var ErrNotConfigured = errors.New("llm service not configured")

// ModelTier selects which configured model serves a request.
type ModelTier int

const (
	// ModelHelper is the small, cheap model used for classification and auditing.
	ModelHelper ModelTier = iota
	// ModelPrimary is the narration model.
	ModelPrimary
)

// CompletionRequest is a single system/user prompt pair.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
	Tier         ModelTier
}

// LLMService defines the interface for interacting with a text-completion API
type LLMService interface {
	// Complete sends one request and returns the model's text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// NewFromConfig builds the completion provider named by the configuration.
// A provider with missing credentials is still returned; its calls fail
// with ErrNotConfigured.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (LLMService, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "openrouter", "":
		return NewOpenRouterService(cfg.APIKey, cfg.PrimaryModel, cfg.HelperModel, cfg.LLMBaseURL, logger), nil
	case "anthropic":
		return NewAnthropicService(cfg.APIKey, cfg.PrimaryModel, cfg.HelperModel, cfg.LLMBaseURL, logger), nil
	case "ollama":
		return NewOllamaService(cfg.LLMBaseURL, cfg.PrimaryModel, cfg.HelperModel, logger), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q (supported: openrouter, anthropic, ollama)", cfg.LLMProvider)
	}
}

// pickModel returns the model for a tier. The helper tier never borrows the
// primary model: an empty result means the tier is not configured.
func pickModel(tier ModelTier, primary, helper string) string {
	if tier == ModelHelper {
		return helper
	}
	return primary
}
