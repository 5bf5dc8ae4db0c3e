package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAnthropicService_Complete(t *testing.T) {
	var got AnthropicChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("Expected /messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected api key header, got %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("Expected anthropic-version header, got %q", r.Header.Get("anthropic-version"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01ABC123",
			"type": "message",
			"role": "assistant",
			"content": [{"type": "text", "text": " 3 "}],
			"model": "claude-haiku",
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 1}
		}`))
	}))
	defer server.Close()

	service := NewAnthropicService("test-key", "claude-sonnet", "claude-haiku", server.URL, discardLogger())
	content, err := service.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "classify",
		UserPrompt:   "user: hello",
		MaxTokens:    1,
		Tier:         ModelHelper,
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if content != "3" {
		t.Errorf("Expected trimmed content '3', got %q", content)
	}
	if got.Model != "claude-haiku" {
		t.Errorf("Expected helper model, got %s", got.Model)
	}
	if got.System != "classify" {
		t.Errorf("Expected system prompt in request, got %q", got.System)
	}
	if got.MaxTokens != 1 {
		t.Errorf("Expected max tokens 1, got %d", got.MaxTokens)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("Expected a single user message, got %+v", got.Messages)
	}
}

func TestAnthropicService_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "non-2xx", status: http.StatusTooManyRequests, body: `{"error":{"type":"rate_limit","message":"slow down"}}`},
		{name: "api error body", status: http.StatusOK, body: `{"error":{"type":"invalid","message":"bad"}}`},
		{name: "no text blocks", status: http.StatusOK, body: `{"content":[]}`},
		{name: "malformed json", status: http.StatusOK, body: `{"content":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			service := NewAnthropicService("k", "m", "h", server.URL, discardLogger())
			if _, err := service.Complete(context.Background(), CompletionRequest{UserPrompt: "x"}); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestAnthropicService_NotConfigured(t *testing.T) {
	service := NewAnthropicService("", "claude-sonnet", "claude-haiku", "http://127.0.0.1:0", discardLogger())
	_, err := service.Complete(context.Background(), CompletionRequest{UserPrompt: "x"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
}
