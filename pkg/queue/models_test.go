package queue

import "testing"

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *Request
		wantErr bool
	}{
		{"refresh", NewRequest(RequestTypeRefresh, "s1", ""), false},
		{"validate", NewRequest(RequestTypeValidate, "s1", "A knight rides past."), false},
		{"validate without narrative", NewRequest(RequestTypeValidate, "s1", "  "), true},
		{"missing session", NewRequest(RequestTypeRefresh, "", ""), true},
		{"unknown type", NewRequest("chat", "s1", "hi"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRequest(t *testing.T) {
	a := NewRequest(RequestTypeRefresh, "s1", "")
	b := NewRequest(RequestTypeRefresh, "s1", "")
	if a.RequestID == "" || a.RequestID == b.RequestID {
		t.Errorf("Expected distinct request ids, got %q and %q", a.RequestID, b.RequestID)
	}
	if a.EnqueuedAt.IsZero() {
		t.Error("Expected EnqueuedAt to be set")
	}
}

func TestFromJSON_Invalid(t *testing.T) {
	if _, err := FromJSON([]byte("{not json")); err == nil {
		t.Error("Expected error for malformed request")
	}
}
