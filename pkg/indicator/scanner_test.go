package indicator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/jwebster45206/worldstate-engine/pkg/chat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type classifyCall struct {
	System    string
	User      string
	MaxTokens int
}

type answer struct {
	value int
	ok    bool
}

// scriptedClassifier replays answers in order and repeats the last one.
type scriptedClassifier struct {
	mu      sync.Mutex
	answers []answer
	fn      func(system, user string) (int, bool)
	calls   []classifyCall
}

func (c *scriptedClassifier) Classify(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, classifyCall{System: systemPrompt, User: userPrompt, MaxTokens: maxTokens})
	if c.fn != nil {
		return c.fn(systemPrompt, userPrompt)
	}
	if len(c.answers) == 0 {
		return 0, false
	}
	idx := min(len(c.calls)-1, len(c.answers)-1)
	return c.answers[idx].value, c.answers[idx].ok
}

func (c *scriptedClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func ok(v int) answer { return answer{value: v, ok: true} }

var failed = answer{}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeHistory(n int) []chat.Message {
	msgs := make([]chat.Message, n)
	for i := range msgs {
		role := chat.ChatRoleUser
		if i%2 == 1 {
			role = chat.ChatRoleAgent
		}
		msgs[i] = chat.Message{Role: role, Content: fmt.Sprintf("turn-%02d", i)}
	}
	return msgs
}

func TestScanner_Scan(t *testing.T) {
	tests := []struct {
		name          string
		signal        Signal
		historyLen    int
		answers       []answer
		expected      int
		expectedCalls int
	}{
		{
			name:          "temperature keeps scanning past unknown",
			signal:        SignalTemperature,
			historyLen:    30,
			answers:       []answer{ok(8), ok(3)},
			expected:      3,
			expectedCalls: 2,
		},
		{
			name:          "temperature exhausts history",
			signal:        SignalTemperature,
			historyLen:    30,
			answers:       []answer{ok(8)},
			expected:      8,
			expectedCalls: 3,
		},
		{
			name:          "weather unknown is terminal",
			signal:        SignalWeather,
			historyLen:    30,
			answers:       []answer{ok(5), ok(1)},
			expected:      5,
			expectedCalls: 1,
		},
		{
			name:          "terrain unknown is terminal",
			signal:        SignalTerrain,
			historyLen:    40,
			answers:       []answer{ok(19), ok(5)},
			expected:      19,
			expectedCalls: 1,
		},
		{
			name:          "terrain above the unknown code is informative",
			signal:        SignalTerrain,
			historyLen:    12,
			answers:       []answer{ok(27)},
			expected:      27,
			expectedCalls: 1,
		},
		{
			name:          "failed chunk falls through to older chunk",
			signal:        SignalWeather,
			historyLen:    25,
			answers:       []answer{failed, ok(2)},
			expected:      2,
			expectedCalls: 2,
		},
		{
			name:          "every chunk fails",
			signal:        SignalTerrain,
			historyLen:    25,
			answers:       []answer{failed},
			expected:      19,
			expectedCalls: 3,
		},
		{
			name:          "safety only looks at one chunk",
			signal:        SignalSafety,
			historyLen:    40,
			answers:       []answer{failed, ok(3)},
			expected:      5,
			expectedCalls: 1,
		},
		{
			name:          "time of day only looks at one chunk",
			signal:        SignalTimeOfDay,
			historyLen:    40,
			answers:       []answer{ok(13), ok(4)},
			expected:      13,
			expectedCalls: 1,
		},
		{
			name:          "history shorter than a chunk",
			signal:        SignalTemperature,
			historyLen:    3,
			answers:       []answer{ok(8)},
			expected:      8,
			expectedCalls: 1,
		},
		{
			name:          "out of range answer is clamped",
			signal:        SignalWeather,
			historyLen:    5,
			answers:       []answer{ok(-7)},
			expected:      0,
			expectedCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &scriptedClassifier{answers: tt.answers}
			scanner := NewScanner(classifier, testLogger())
			spec, _ := SpecFor(tt.signal)

			got := scanner.Scan(context.Background(), spec, PromptFor(tt.signal), makeHistory(tt.historyLen))
			if got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
			if n := classifier.callCount(); n != tt.expectedCalls {
				t.Errorf("Expected %d classifier calls, got %d", tt.expectedCalls, n)
			}
		})
	}
}

func TestScanner_ChunksNewestFirst(t *testing.T) {
	classifier := &scriptedClassifier{answers: []answer{ok(8)}}
	scanner := NewScanner(classifier, testLogger())
	spec, _ := SpecFor(SignalTemperature)

	scanner.Scan(context.Background(), spec, PromptFor(SignalTemperature), makeHistory(30))

	if len(classifier.calls) != 3 {
		t.Fatalf("Expected 3 calls, got %d", len(classifier.calls))
	}

	// chunk windows: [18,30), [6,18), [0,6)
	windows := [][2]int{{18, 30}, {6, 18}, {0, 6}}
	for i, w := range windows {
		user := classifier.calls[i].User
		for n := 0; n < 30; n++ {
			turn := fmt.Sprintf("turn-%02d", n)
			inWindow := n >= w[0] && n < w[1]
			if strings.Contains(user, turn) != inWindow {
				t.Errorf("call %d: %s present=%v, expected %v", i, turn, !inWindow, inWindow)
			}
		}
		if classifier.calls[i].MaxTokens != ClassifyMaxTokens {
			t.Errorf("call %d: expected max tokens %d, got %d", i, ClassifyMaxTokens, classifier.calls[i].MaxTokens)
		}
	}
}

func TestScanner_SafetyWindowIsLastSix(t *testing.T) {
	classifier := &scriptedClassifier{answers: []answer{ok(1)}}
	scanner := NewScanner(classifier, testLogger())
	spec, _ := SpecFor(SignalSafety)

	got := scanner.Scan(context.Background(), spec, PromptFor(SignalSafety), makeHistory(10))
	if got != 1 {
		t.Errorf("Expected 1, got %d", got)
	}

	user := classifier.calls[0].User
	if strings.Contains(user, "turn-03") {
		t.Error("Expected turn-03 to be outside the safety window")
	}
	for _, turn := range []string{"turn-04", "turn-09"} {
		if !strings.Contains(user, turn) {
			t.Errorf("Expected %s in the safety window", turn)
		}
	}
}

func TestScanner_ClassifyChunk(t *testing.T) {
	spec, _ := SpecFor(SignalTerrain)
	tests := []struct {
		name     string
		answer   answer
		expected Outcome
	}{
		{name: "informative", answer: ok(7), expected: Outcome{Kind: OutcomeInformative, Value: 7}},
		{name: "sentinel", answer: ok(19), expected: Outcome{Kind: OutcomeSentinel, Value: 19}},
		{name: "call failed", answer: failed, expected: Outcome{Kind: OutcomeCallFailed}},
		{name: "rogue value clamps high", answer: ok(99), expected: Outcome{Kind: OutcomeInformative, Value: 35}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := NewScanner(&scriptedClassifier{answers: []answer{tt.answer}}, testLogger())
			got := scanner.ClassifyChunk(context.Background(), spec, PromptFor(SignalTerrain), makeHistory(2))
			if got != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}
