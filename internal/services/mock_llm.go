package services

import (
	"context"
	"sync"
)

// MockLLMService is a mock implementation of LLMService for testing
type MockLLMService struct {
	CompleteFunc func(ctx context.Context, req CompletionRequest) (string, error)

	// Track calls for testing
	CompleteCalls []CompletionRequest

	mu sync.Mutex // protects all fields above
}

// NewMockLLMService creates a new mock LLM service
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{
		CompleteCalls: make([]CompletionRequest, 0),
	}
}

// Complete mocks a completion
func (m *MockLLMService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m.mu.Lock()
	m.CompleteCalls = append(m.CompleteCalls, req)
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}

	// Default behavior - a neutral classification
	return "0", nil
}

// SetCompleteResponse sets up the mock to always answer with content
func (m *MockLLMService) SetCompleteResponse(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteFunc = func(ctx context.Context, req CompletionRequest) (string, error) {
		return content, nil
	}
}

// SetCompleteError sets up the mock to return an error on Complete
func (m *MockLLMService) SetCompleteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteFunc = func(ctx context.Context, req CompletionRequest) (string, error) {
		return "", err
	}
}

// Calls returns a copy of the recorded requests
func (m *MockLLMService) Calls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]CompletionRequest, len(m.CompleteCalls))
	copy(calls, m.CompleteCalls)
	return calls
}

// Reset clears all call tracking
func (m *MockLLMService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls = make([]CompletionRequest, 0)
}

// Ensure MockLLMService implements LLMService interface
var _ LLMService = (*MockLLMService)(nil)
