package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestType identifies the work a queued request asks for
type RequestType string

const (
	// RequestTypeRefresh recomputes every world-state signal for a session
	RequestTypeRefresh RequestType = "refresh_world_state"

	// RequestTypeValidate runs the history validator over a narrative
	RequestTypeValidate RequestType = "validate_history"
)

// Request is one unit of background work
type Request struct {
	RequestID string      `json:"request_id"`
	Type      RequestType `json:"type"`
	SessionID string      `json:"session_id"`

	// Validate-specific
	Narrative string `json:"narrative,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewRequest stamps a request with a fresh id and the current time.
func NewRequest(typ RequestType, sessionID, narrative string) *Request {
	return &Request{
		RequestID:  uuid.New().String(),
		Type:       typ,
		SessionID:  sessionID,
		Narrative:  narrative,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Validate checks that a request can be processed
func (r *Request) Validate() error {
	if r.SessionID == "" {
		return errors.New("session id cannot be empty")
	}
	switch r.Type {
	case RequestTypeRefresh:
	case RequestTypeValidate:
		if strings.TrimSpace(r.Narrative) == "" {
			return errors.New("narrative cannot be empty")
		}
	default:
		return fmt.Errorf("unknown request type %q", r.Type)
	}
	return nil
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
