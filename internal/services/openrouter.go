package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"

	DefaultOpenRouterMaxTokens = 512
)

// OpenRouterService implements LLMService over the OpenAI-compatible
// OpenRouter chat completions API.
type OpenRouterService struct {
	apiKey       string
	primaryModel string
	helperModel  string
	baseURL      string
	httpClient   *http.Client
	logger       *slog.Logger
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenRouterChatRequest represents the request structure for chat completions
type OpenRouterChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Stream      bool                `json:"stream"`
}

// OpenRouterChatResponse represents the response structure for chat completions
type OpenRouterChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

type openRouterCreditsResponse struct {
	Data struct {
		TotalCredits float64 `json:"total_credits"`
		TotalUsage   float64 `json:"total_usage"`
	} `json:"data"`
}

// NewOpenRouterService creates a new OpenRouter service. An empty baseURL
// selects the public endpoint.
func NewOpenRouterService(apiKey, primaryModel, helperModel, baseURL string, logger *slog.Logger) *OpenRouterService {
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}
	return &OpenRouterService{
		apiKey:       apiKey,
		primaryModel: primaryModel,
		helperModel:  helperModel,
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// Complete makes a chat completion request with the model for req.Tier
func (o *OpenRouterService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := pickModel(req.Tier, o.primaryModel, o.helperModel)
	if o.apiKey == "" || model == "" {
		return "", ErrNotConfigured
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultOpenRouterMaxTokens
	}

	chatReq := OpenRouterChatRequest{
		Model:       model,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
	}
	if req.SystemPrompt != "" {
		chatReq.Messages = append(chatReq.Messages, openRouterMessage{Role: "system", Content: req.SystemPrompt})
	}
	chatReq.Messages = append(chatReq.Messages, openRouterMessage{Role: "user", Content: req.UserPrompt})

	reqBody, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	body, err := o.do(httpReq)
	if err != nil {
		return "", err
	}

	var chatResp OpenRouterChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("API returned no choices")
	}

	o.logger.Debug("OpenRouter completion",
		"model", model,
		"prompt_tokens", chatResp.Usage.PromptTokens,
		"completion_tokens", chatResp.Usage.CompletionTokens)

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// Balance returns the remaining account credit, rounded to cents.
func (o *OpenRouterService) Balance(ctx context.Context) (float64, error) {
	if o.apiKey == "" {
		return 0, ErrNotConfigured
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/credits", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	body, err := o.do(httpReq)
	if err != nil {
		return 0, err
	}

	var credits openRouterCreditsResponse
	if err := json.Unmarshal(body, &credits); err != nil {
		return 0, fmt.Errorf("failed to parse credits response: %w", err)
	}

	balance := credits.Data.TotalCredits - credits.Data.TotalUsage
	return math.Round(balance*100) / 100, nil
}

func (o *OpenRouterService) do(req *http.Request) ([]byte, error) {
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
