package search

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds a single search request.
const DefaultTimeout = 15 * time.Second

// Backend returns up to maxResults text snippets for a query.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
}

// Chain tries backends in order; the first one with results wins.
type Chain struct {
	backends []Backend
	logger   *slog.Logger
}

func NewChain(logger *slog.Logger, backends ...Backend) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{backends: backends, logger: logger}
}

func (c *Chain) Name() string { return "chain" }

// Search never returns an error: failing backends are logged and skipped,
// and a query no backend can answer yields no snippets.
func (c *Chain) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	for _, b := range c.backends {
		snippets, err := b.Search(ctx, query, maxResults)
		if err != nil {
			c.logger.Warn("Search backend failed", "backend", b.Name(), "query", query, "error", err)
			continue
		}
		if len(snippets) > 0 {
			if len(snippets) > maxResults && maxResults > 0 {
				snippets = snippets[:maxResults]
			}
			return snippets, nil
		}
	}
	return nil, nil
}

// MockBackend is a Backend for tests
type MockBackend struct {
	SearchFunc func(ctx context.Context, query string, maxResults int) ([]string, error)

	mu      sync.Mutex
	queries []string
}

func (m *MockBackend) Name() string { return "mock" }

func (m *MockBackend) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	fn := m.SearchFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, query, maxResults)
	}
	return nil, nil
}

// Queries returns the queries seen so far
func (m *MockBackend) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

var (
	_ Backend = (*Chain)(nil)
	_ Backend = (*MockBackend)(nil)
	_ Backend = (*DuckDuckGoHTML)(nil)
	_ Backend = (*DuckDuckGoInstant)(nil)
)
