package storage

import (
	"context"
	"sync"

	"github.com/jwebster45206/worldstate-engine/pkg/chat"
)

// MockStore is an in-memory ConversationStore for testing
type MockStore struct {
	LoadConversationFunc func(ctx context.Context, sessionID string) ([]chat.Message, error)

	// Track calls for testing
	LoadCalls   []string
	AppendCalls []string

	mu            sync.RWMutex
	conversations map[string][]chat.Message
	pingError     error
}

// Ensure MockStore implements ConversationStore interface
var _ ConversationStore = (*MockStore)(nil)

// NewMockStore creates a new mock store
func NewMockStore() *MockStore {
	return &MockStore{
		conversations: make(map[string][]chat.Message),
	}
}

// SetConversation replaces a session's records
func (m *MockStore) SetConversation(sessionID string, msgs []chat.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations[sessionID] = append([]chat.Message(nil), msgs...)
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) LoadConversation(ctx context.Context, sessionID string) ([]chat.Message, error) {
	m.mu.Lock()
	m.LoadCalls = append(m.LoadCalls, sessionID)
	fn := m.LoadConversationFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, sessionID)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]chat.Message{}, m.conversations[sessionID]...), nil
}

func (m *MockStore) AppendMessage(ctx context.Context, sessionID string, msg chat.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCalls = append(m.AppendCalls, sessionID)

	msg, err := prepareAppend(sessionID, m.conversations[sessionID], msg)
	if err != nil {
		return err
	}
	m.conversations[sessionID] = append(m.conversations[sessionID], msg)
	return nil
}

func (m *MockStore) DeleteConversation(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, sessionID)
	return nil
}
