package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestMessageJSON tests the wire form of messages.
func TestMessageJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{name: "bare notification", msg: UpdateSettings(), want: `{"type":"UPDATE_SETTINGS"}`},
		{
			name: "inline values",
			msg:  UpdateSettingsWith(false, "math, physics"),
			want: `{"type":"UPDATE_SETTINGS","enabled":false,"extraKeywords":"math, physics"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, err := json.Marshal(tt.msg)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, data)
			}
		})
	}

	if UpdateSettings().HasValues() {
		t.Error("expected bare notification to carry no values")
	}
	if !UpdateSettingsWith(true, "").HasValues() {
		t.Error("expected inline notification to carry values")
	}
}

// TestResponse tests response helpers.
func TestResponse(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff(Response{Success: true}, OK()); diff != "" {
		t.Errorf("OK mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Response{Error: "boom"}, Fail(errors.New("boom"))); diff != "" {
		t.Errorf("Fail mismatch (-want +got):\n%s", diff)
	}
}

// TestHubBroadcast tests fan-out and error swallowing.
func TestHubBroadcast(t *testing.T) {
	t.Parallel()

	t.Run("delivers to every receiver", func(t *testing.T) {
		t.Parallel()

		hub := NewHub(nil)
		var calls atomic.Int32
		for range 3 {
			hub.Register(ReceiverFunc(func(_ context.Context, msg Message) Response {
				if msg.Type != TypeUpdateSettings {
					t.Errorf("unexpected message type %q", msg.Type)
				}
				calls.Add(1)
				return OK()
			}))
		}

		stats := hub.Broadcast(context.Background(), UpdateSettings())
		if diff := cmp.Diff(Stats{Delivered: 3}, stats); diff != "" {
			t.Errorf("stats mismatch (-want +got):\n%s", diff)
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 calls, got %d", calls.Load())
		}
	})

	t.Run("stale and panicking receivers are swallowed", func(t *testing.T) {
		t.Parallel()

		hub := NewHub(nil)
		hub.Register(ReceiverFunc(func(context.Context, Message) Response {
			return Fail(errors.New("session stopped"))
		}))
		hub.Register(ReceiverFunc(func(context.Context, Message) Response {
			panic("gone")
		}))
		hub.Register(ReceiverFunc(func(context.Context, Message) Response {
			return OK()
		}))

		stats := hub.Broadcast(context.Background(), UpdateSettings())
		if diff := cmp.Diff(Stats{Delivered: 1, Failed: 2}, stats); diff != "" {
			t.Errorf("stats mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unregister removes the receiver", func(t *testing.T) {
		t.Parallel()

		hub := NewHub(nil)
		var calls atomic.Int32
		unregister := hub.Register(ReceiverFunc(func(context.Context, Message) Response {
			calls.Add(1)
			return OK()
		}))
		unregister()

		if hub.Len() != 0 {
			t.Errorf("expected no receivers, got %d", hub.Len())
		}
		if stats := hub.Broadcast(context.Background(), UpdateSettings()); stats != (Stats{}) {
			t.Errorf("expected empty stats, got %+v", stats)
		}
		if calls.Load() != 0 {
			t.Error("expected no delivery after unregister")
		}
	})
}
