package anachronism

import (
	"context"
	"log/slog"
	"time"

	"github.com/jwebster45206/worldstate-engine/pkg/chat"
)

const (
	// IntroRecords is how many leading records of every conversation are
	// scenario setup rather than play.
	IntroRecords = 3
	// WindowSize is how many recent records are shown to the model.
	WindowSize = 6

	VerdictMaxTokens       = 300
	DefaultValidateTimeout = 30 * time.Second

	debugTruncate = 2000
)

// ConversationLoader reads a session's stored records, oldest first.
type ConversationLoader interface {
	LoadConversation(ctx context.Context, sessionID string) ([]chat.Message, error)
}

// Completer sends one system/user prompt pair to the helper model at
// temperature zero.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Validator decides whether a narrative needs rewording for its era.
type Validator struct {
	store    ConversationLoader
	llm      Completer
	evidence *EvidenceGatherer
	timeout  time.Duration
	debug    bool
	logger   *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithTimeout bounds the model call.
func WithTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithDebug logs every model interaction in full at debug level.
func WithDebug(enabled bool) Option {
	return func(v *Validator) { v.debug = enabled }
}

func NewValidator(store ConversationLoader, llm Completer, searcher Searcher, logger *slog.Logger, opts ...Option) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Validator{
		store:    store,
		llm:      llm,
		evidence: NewEvidenceGatherer(searcher, logger),
		timeout:  DefaultValidateTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate never fails: store, search, and model errors each degrade to
// the next fallback, ending at the static lexicon.
func (v *Validator) Validate(ctx context.Context, sessionID, narrative string) Verdict {
	log := v.logger.With("session_id", sessionID)

	history, err := v.store.LoadConversation(ctx, sessionID)
	if err != nil {
		log.Warn("Failed to load conversation for history check", "error", err)
		return NoIntervention(nil)
	}
	if len(history) <= IntroRecords {
		return NoIntervention(nil)
	}

	window := history[IntroRecords:]
	if len(window) > WindowSize {
		window = window[len(window)-WindowSize:]
	}
	anchor := NewDateAnchor(history[len(history)-1].EstimatedDate)

	snippets := v.evidence.Gather(ctx, ExtractTerms(narrative).Terms(), anchor)
	queries := Queries(snippets)
	evidence := FormatEvidence(snippets)

	userPrompt := UserPrompt(anchor.Raw, chat.FormatTranscript(window), narrative, evidence)
	raw := v.complete(ctx, userPrompt)

	if v.debug {
		log.Debug("History validator interaction",
			"narrative", truncate(narrative),
			"system_prompt", truncate(SystemPrompt),
			"user_prompt", truncate(userPrompt),
			"raw_response", raw,
			"queries", queries,
			"evidence", evidence)
	}

	if raw != "" {
		verdict, err := ParseVerdict(raw, queries)
		if err == nil {
			return verdict
		}
		log.Warn("Unparseable history verdict, using lexicon", "error", err)
	}
	return Heuristic(narrative, anchor, queries)
}

func (v *Validator) complete(ctx context.Context, userPrompt string) string {
	if v.llm == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	raw, err := v.llm.Complete(ctx, SystemPrompt, userPrompt, VerdictMaxTokens)
	if err != nil {
		v.logger.Warn("History verdict request failed", "error", err)
		return ""
	}
	return raw
}

// truncate keeps the first debugTruncate characters of s.
func truncate(s string) string {
	n := 0
	for i := range s {
		if n == debugTruncate {
			return s[:i] + "...[truncated]"
		}
		n++
	}
	return s
}
