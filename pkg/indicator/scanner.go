package indicator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/worldstate-engine/pkg/chat"
)

// ClassifyMaxTokens is the completion budget of a single chunk classification.
const ClassifyMaxTokens = 1

// Classifier issues one classification request and returns the integer the
// model answered with. ok is false on any transport or parse failure.
type Classifier interface {
	Classify(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (value int, ok bool)
}

// OutcomeKind distinguishes why a chunk did or did not produce an answer.
type OutcomeKind int

const (
	OutcomeInformative OutcomeKind = iota
	OutcomeSentinel
	OutcomeCallFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInformative:
		return "informative"
	case OutcomeSentinel:
		return "sentinel"
	case OutcomeCallFailed:
		return "call_failed"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of classifying one chunk.
type Outcome struct {
	Kind  OutcomeKind
	Value int
}

// Scanner walks a conversation from the most recent chunk backward and
// returns the first informative classification.
type Scanner struct {
	classifier Classifier
	logger     *slog.Logger
}

// NewScanner creates a scanner over the given classifier.
func NewScanner(classifier Classifier, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		classifier: classifier,
		logger:     logger,
	}
}

// Scan classifies history chunk by chunk, newest first. Chunks are
// classified one at a time; an older chunk is only examined when every newer
// one was uninformative or failed.
func (s *Scanner) Scan(ctx context.Context, spec Spec, prompt Prompt, history []chat.Message) int {
	if spec.ChunkSize <= 0 {
		return spec.Unknown
	}

	for i := len(history); i > 0; {
		start := max(0, i-spec.ChunkSize)
		chunk := history[start:i]
		i = start

		out := s.ClassifyChunk(ctx, spec, prompt, chunk)
		switch out.Kind {
		case OutcomeInformative:
			return out.Value
		case OutcomeSentinel:
			if !spec.ContinueOnUnknown {
				return spec.Unknown
			}
		case OutcomeCallFailed:
			s.logger.Warn("Chunk classification failed, trying older chunk",
				"signal", spec.Signal,
				"chunk_start", start,
				"chunk_len", len(chunk))
		}

		if spec.SingleChunk {
			break
		}
	}

	return spec.Unknown
}

// ClassifyChunk classifies a single window of messages.
func (s *Scanner) ClassifyChunk(ctx context.Context, spec Spec, prompt Prompt, chunk []chat.Message) Outcome {
	user := fmt.Sprintf(prompt.User, chat.FormatTranscript(chunk))

	raw, ok := s.classifier.Classify(ctx, prompt.System, user, ClassifyMaxTokens)
	if !ok {
		return Outcome{Kind: OutcomeCallFailed}
	}

	value := spec.Clamp(raw)
	if value != raw {
		s.logger.Debug("Clamped out-of-range classification",
			"signal", spec.Signal,
			"raw", raw,
			"clamped", value)
	}

	if value == spec.Unknown {
		return Outcome{Kind: OutcomeSentinel, Value: value}
	}
	return Outcome{Kind: OutcomeInformative, Value: value}
}
