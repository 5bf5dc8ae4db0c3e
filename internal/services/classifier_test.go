package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestClassificationClient_Classify(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		err       error
		wantValue int
		wantOK    bool
	}{
		{name: "integer", content: "3", wantValue: 3, wantOK: true},
		{name: "padded integer", content: " 12\n", wantValue: 12, wantOK: true},
		{name: "negative integer", content: "-1", wantValue: -1, wantOK: true},
		{name: "word", content: "three", wantValue: 0, wantOK: false},
		{name: "integer with text", content: "3.", wantValue: 0, wantOK: false},
		{name: "empty", content: "", wantValue: 0, wantOK: false},
		{name: "transport error", err: errors.New("connection refused"), wantValue: 0, wantOK: false},
		{name: "not configured", err: ErrNotConfigured, wantValue: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockLLMService()
			mock.CompleteFunc = func(ctx context.Context, req CompletionRequest) (string, error) {
				return tt.content, tt.err
			}

			client := NewClassificationClient(mock, 0, discardLogger())
			value, ok := client.Classify(context.Background(), "sys", "usr", 1)
			if value != tt.wantValue || ok != tt.wantOK {
				t.Errorf("Classify() = (%d, %v), want (%d, %v)", value, ok, tt.wantValue, tt.wantOK)
			}
			if calls := len(mock.Calls()); calls != 1 {
				t.Errorf("Expected exactly 1 completion call, got %d", calls)
			}
		})
	}
}

func TestClassificationClient_RequestShape(t *testing.T) {
	mock := NewMockLLMService()
	client := NewClassificationClient(mock, time.Second, discardLogger())
	client.Classify(context.Background(), "system text", "user text", 1)

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("Expected 1 call, got %d", len(calls))
	}
	req := calls[0]
	if req.SystemPrompt != "system text" || req.UserPrompt != "user text" {
		t.Errorf("Prompts not forwarded: %+v", req)
	}
	if req.MaxTokens != 1 {
		t.Errorf("Expected max tokens 1, got %d", req.MaxTokens)
	}
	if req.Temperature != 0 {
		t.Errorf("Expected temperature 0, got %v", req.Temperature)
	}
	if req.Tier != ModelHelper {
		t.Errorf("Expected helper tier, got %v", req.Tier)
	}
}

func TestClassificationClient_Timeout(t *testing.T) {
	mock := NewMockLLMService()
	mock.CompleteFunc = func(ctx context.Context, req CompletionRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	client := NewClassificationClient(mock, 20*time.Millisecond, discardLogger())
	start := time.Now()
	_, ok := client.Classify(context.Background(), "sys", "usr", 1)
	if ok {
		t.Error("Expected a timed-out call to fail")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Timeout not applied, call took %v", elapsed)
	}
}

func TestClassificationClient_UnconfiguredProviderMakesNoRequest(t *testing.T) {
	service := NewOpenRouterService("", "", "", "http://127.0.0.1:1", discardLogger())
	client := NewClassificationClient(service, time.Second, discardLogger())
	if v, ok := client.Classify(context.Background(), "sys", "usr", 1); ok || v != 0 {
		t.Errorf("Classify() = (%d, %v), want (0, false)", v, ok)
	}
}

func TestClassificationClient_MissingHelperModelMakesNoRequest(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"3"}}]}`))
	}))
	defer server.Close()

	providers := map[string]LLMService{
		"openrouter": NewOpenRouterService("key", "big-model", "", server.URL, discardLogger()),
		"anthropic":  NewAnthropicService("key", "big-model", "", server.URL, discardLogger()),
		"ollama":     NewOllamaService(server.URL, "big-model", "", discardLogger()),
	}
	for name, service := range providers {
		t.Run(name, func(t *testing.T) {
			client := NewClassificationClient(service, time.Second, discardLogger())
			if v, ok := client.Classify(context.Background(), "sys", "usr", 1); ok || v != 0 {
				t.Errorf("Classify() = (%d, %v), want (0, false)", v, ok)
			}
		})
	}
	if n := requests.Load(); n != 0 {
		t.Errorf("Expected no requests without a helper model, got %d", n)
	}
}

func TestClassificationClient_NilLogger(t *testing.T) {
	mock := NewMockLLMService()
	mock.SetCompleteResponse("not a number")
	client := NewClassificationClient(mock, time.Second, nil)
	if v, ok := client.Classify(context.Background(), "sys", "usr", 1); ok || v != 0 {
		t.Errorf("Classify() = (%d, %v), want (0, false)", v, ok)
	}
}

type countingClassifier struct {
	mu      sync.Mutex
	answers []bool
	calls   int
}

func (c *countingClassifier) Classify(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.calls
	c.calls++
	if i < len(c.answers) && c.answers[i] {
		return 7, true
	}
	return 0, false
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		answers   []bool
		attempts  int
		wantOK    bool
		wantCalls int
	}{
		{name: "first try", answers: []bool{true}, attempts: 3, wantOK: true, wantCalls: 1},
		{name: "third try", answers: []bool{false, false, true}, attempts: 3, wantOK: true, wantCalls: 3},
		{name: "exhausted", answers: []bool{false, false, false, true}, attempts: 3, wantOK: false, wantCalls: 3},
		{name: "zero attempts means one", answers: []bool{false}, attempts: 0, wantOK: false, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &countingClassifier{answers: tt.answers}
			retrying := WithRetry(inner, tt.attempts, time.Millisecond)
			v, ok := retrying.Classify(context.Background(), "s", "u", 1)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && v != 7 {
				t.Errorf("value = %d, want 7", v)
			}
			if inner.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", inner.calls, tt.wantCalls)
			}
		})
	}
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	inner := &countingClassifier{}
	retrying := WithRetry(inner, 5, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := retrying.Classify(ctx, "s", "u", 1); ok {
		t.Error("Expected failure")
	}
	if inner.calls != 1 {
		t.Errorf("Expected a single attempt before cancellation, got %d", inner.calls)
	}
}

func TestHelperCompleter(t *testing.T) {
	mock := NewMockLLMService()
	mock.SetCompleteResponse(`{"intervene": false}`)

	got, err := NewHelperCompleter(mock).Complete(context.Background(), "sys", "usr", 300)
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got != `{"intervene": false}` {
		t.Errorf("Unexpected content %q", got)
	}

	req := mock.Calls()[0]
	if req.Tier != ModelHelper || req.MaxTokens != 300 || req.Temperature != 0 {
		t.Errorf("Unexpected request %+v", req)
	}
}
