package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/jwebster45206/worldstate-engine/pkg/chat"
)

func TestMockStore(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	store.SetConversation("s", []chat.Message{{Role: "user", Content: "a", ObjectiveTime: chat.IntPtr(60)}})
	if err := store.AppendMessage(ctx, "s", chat.Message{Role: "assistant", Content: "b"}); err != nil {
		t.Fatalf("AppendMessage() error: %v", err)
	}

	msgs, err := store.LoadConversation(ctx, "s")
	if err != nil || len(msgs) != 2 {
		t.Fatalf("LoadConversation() = %d records, %v", len(msgs), err)
	}
	if *msgs[1].ObjectiveTime != 120 {
		t.Errorf("Expected objective time 120, got %d", *msgs[1].ObjectiveTime)
	}
	if len(store.LoadCalls) != 1 || len(store.AppendCalls) != 1 {
		t.Errorf("Unexpected call tracking: %v %v", store.LoadCalls, store.AppendCalls)
	}

	// Loaded slices are copies
	msgs[0].Content = "changed"
	again, _ := store.LoadConversation(ctx, "s")
	if again[0].Content != "a" {
		t.Error("Mutating a loaded conversation changed the store")
	}

	if err := store.DeleteConversation(ctx, "s"); err != nil {
		t.Fatal(err)
	}
	if msgs, _ := store.LoadConversation(ctx, "s"); len(msgs) != 0 {
		t.Error("Expected empty conversation after delete")
	}

	store.SetPingError(errors.New("down"))
	if err := store.Ping(ctx); err == nil {
		t.Error("Expected ping error")
	}
}

func TestLatestObjectiveTime(t *testing.T) {
	tests := []struct {
		name string
		msgs []chat.Message
		want int
	}{
		{name: "empty", msgs: nil, want: 0},
		{name: "none set", msgs: []chat.Message{{Role: "user", Content: "a"}}, want: 0},
		{name: "newest set wins", msgs: []chat.Message{
			{ObjectiveTime: chat.IntPtr(60)},
			{ObjectiveTime: chat.IntPtr(300)},
			{},
		}, want: 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LatestObjectiveTime(tt.msgs); got != tt.want {
				t.Errorf("LatestObjectiveTime() = %d, want %d", got, tt.want)
			}
		})
	}
}
