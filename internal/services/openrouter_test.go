package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRouterService_Complete(t *testing.T) {
	var got OpenRouterChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"gen-1","choices":[{"index":0,"message":{"role":"assistant","content":"12\n"}}],"usage":{"prompt_tokens":40,"completion_tokens":1}}`))
	}))
	defer server.Close()

	service := NewOpenRouterService("or-key", "big", "small", server.URL, discardLogger())
	content, err := service.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "sys",
		UserPrompt:   "usr",
		MaxTokens:    1,
		Tier:         ModelHelper,
	})
	require.NoError(t, err)
	assert.Equal(t, "12", content)
	assert.Equal(t, "small", got.Model)
	assert.Equal(t, 1, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "usr", got.Messages[1].Content)
}

func TestOpenRouterService_PrimaryTierAndMissingHelper(t *testing.T) {
	var models []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req OpenRouterChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		models = append(models, req.Model)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	ctx := context.Background()
	withHelper := NewOpenRouterService("k", "big", "small", server.URL, discardLogger())
	_, err := withHelper.Complete(ctx, CompletionRequest{UserPrompt: "x", Tier: ModelPrimary})
	require.NoError(t, err)

	noHelper := NewOpenRouterService("k", "big", "", server.URL, discardLogger())
	_, err = noHelper.Complete(ctx, CompletionRequest{UserPrompt: "x", Tier: ModelHelper})
	assert.ErrorIs(t, err, ErrNotConfigured)

	assert.Equal(t, []string{"big"}, models)
}

func TestOpenRouterService_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "error payload", status: http.StatusOK, body: `{"error":{"message":"quota","code":402}}`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			service := NewOpenRouterService("k", "m", "s", server.URL, discardLogger())
			_, err := service.Complete(context.Background(), CompletionRequest{UserPrompt: "x"})
			assert.Error(t, err)
		})
	}
}

func TestOpenRouterService_NotConfigured(t *testing.T) {
	noKey := NewOpenRouterService("", "m", "s", "", discardLogger())
	_, err := noKey.Complete(context.Background(), CompletionRequest{UserPrompt: "x"})
	assert.True(t, errors.Is(err, ErrNotConfigured))

	noModel := NewOpenRouterService("k", "", "", "", discardLogger())
	_, err = noModel.Complete(context.Background(), CompletionRequest{UserPrompt: "x"})
	assert.True(t, errors.Is(err, ErrNotConfigured))

	_, err = noKey.Balance(context.Background())
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestOpenRouterService_Balance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/credits", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"data":{"total_credits":10.0,"total_usage":2.4567}}`))
	}))
	defer server.Close()

	service := NewOpenRouterService("k", "m", "s", server.URL, discardLogger())
	balance, err := service.Balance(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 7.54, balance, 0.0001)
}
