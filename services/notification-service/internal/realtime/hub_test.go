package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestMemoryHubFanout(t *testing.T) {
	hub := NewMemoryHub(4)
	ctx := context.Background()

	a, stopA, _ := hub.Subscribe(ctx)
	b, stopB, _ := hub.Subscribe(ctx)
	defer stopB()

	if err := hub.Publish(ctx, ChannelChanges, Change{Table: "appointments", Event: "update"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for _, ch := range []<-chan Message{a, b} {
		select {
		case m := <-ch:
			var c Change
			if err := json.Unmarshal(m.Payload, &c); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if m.Channel != ChannelChanges || c.Table != "appointments" {
				t.Fatalf("unexpected message %+v", m)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber did not receive message")
		}
	}

	stopA()
	stopA()
	if _, ok := <-a; ok {
		t.Fatalf("expected channel closed after stop")
	}
	if hub.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.Subscribers())
	}
}

func TestMemoryHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewMemoryHub(1)
	ctx, cancel := context.WithCancel(context.Background())
	ch, _, _ := hub.Subscribe(ctx)

	for i := 0; i < 3; i++ {
		if err := hub.Publish(ctx, ChannelNotifications, map[string]int{"n": i}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	if len(ch) != 1 {
		t.Fatalf("expected buffered message count 1, got %d", len(ch))
	}

	cancel()
	deadline := time.After(time.Second)
	for hub.Subscribers() != 0 {
		select {
		case <-deadline:
			t.Fatalf("subscription not released on context cancel")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
