package services

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// DefaultClassifyTimeout bounds a single classification round trip.
const DefaultClassifyTimeout = 15 * time.Second

// ClassificationClient turns a completion into a single integer code.
// Every call sends exactly one request; it never retries and keeps no state
// between calls.
type ClassificationClient struct {
	llm     LLMService
	timeout time.Duration
	logger  *slog.Logger
}

// NewClassificationClient wraps a completion provider. A zero timeout selects
// DefaultClassifyTimeout.
func NewClassificationClient(llm LLMService, timeout time.Duration, logger *slog.Logger) *ClassificationClient {
	if timeout <= 0 {
		timeout = DefaultClassifyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassificationClient{
		llm:     llm,
		timeout: timeout,
		logger:  logger,
	}
}

// Classify asks the helper model for an integer answer. ok is false when the
// service is not configured, the call fails, or the answer is not an integer.
func (c *ClassificationClient) Classify(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (int, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	content, err := c.llm.Complete(ctx, CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    maxTokens,
		Temperature:  0,
		Tier:         ModelHelper,
	})
	if err != nil {
		c.logger.Warn("Classification request failed", "error", err)
		return 0, false
	}

	value, err := strconv.Atoi(strings.TrimSpace(content))
	if err != nil {
		c.logger.Warn("Classification answer is not an integer", "content", content)
		return 0, false
	}
	return value, true
}

// Classifier is the integer-classification capability.
type Classifier interface {
	Classify(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (int, bool)
}

// RetryingClassifier retries a failed classification with a fixed backoff.
// The signal pipeline never uses it; one-shot accept/reject style callers do.
type RetryingClassifier struct {
	next     Classifier
	attempts int
	backoff  time.Duration
}

// WithRetry wraps a classifier so that it is tried up to attempts times.
func WithRetry(next Classifier, attempts int, backoff time.Duration) *RetryingClassifier {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingClassifier{next: next, attempts: attempts, backoff: backoff}
}

func (r *RetryingClassifier) Classify(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (int, bool) {
	for i := 0; i < r.attempts; i++ {
		if v, ok := r.next.Classify(ctx, systemPrompt, userPrompt, maxTokens); ok {
			return v, true
		}
		if i == r.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return 0, false
		case <-time.After(r.backoff):
		}
	}
	return 0, false
}
