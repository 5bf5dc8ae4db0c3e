package chat

import (
	"fmt"
	"strings"
)

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Narrator
	ChatRoleSystem = "system"    // Game setup / system
)

// Message is a single stored conversation turn. Records are append-only and
// owned by the conversation store; the signal pipeline only reads them.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`

	// EstimatedDate is the in-world date recorded with the turn, ISO-like,
	// with a leading "-" for BCE years (e.g. "-0120-05-20").
	EstimatedDate string `json:"estimated_date,omitempty"`
	InputTokens   *int   `json:"input_tokens,omitempty"`
	OutputTokens  *int   `json:"output_tokens,omitempty"`
	ObjectiveTime *int   `json:"objective_time,omitempty"` // seconds since game start
}

// Validate checks that a message can be appended to a conversation
func (m *Message) Validate() error {
	switch m.Role {
	case ChatRoleUser, ChatRoleAgent, ChatRoleSystem:
	default:
		return fmt.Errorf("invalid role %q", m.Role)
	}
	if m.Content == "" {
		return fmt.Errorf("content cannot be empty")
	}
	return nil
}

// FormatTranscript flattens messages into "role: content" lines.
func FormatTranscript(msgs []Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// TotalInputTokens sums the recorded input token counts of a conversation.
func TotalInputTokens(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		if m.InputTokens != nil {
			total += *m.InputTokens
		}
	}
	return total
}

// TotalOutputTokens sums the recorded output token counts of a conversation.
func TotalOutputTokens(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		if m.OutputTokens != nil {
			total += *m.OutputTokens
		}
	}
	return total
}

// Latest returns the most recent message, or nil for an empty history.
func Latest(msgs []Message) *Message {
	if len(msgs) == 0 {
		return nil
	}
	return &msgs[len(msgs)-1]
}

// IntPtr is a helper for the optional counters.
func IntPtr(v int) *int {
	return &v
}
