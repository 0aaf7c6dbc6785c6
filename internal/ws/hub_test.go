package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestPublishOnNilHubIsNoop(t *testing.T) {
	var h *Hub
	h.Publish(Event{Type: "sale_created"})
}

func TestPublishQueuesEncodedEvent(t *testing.T) {
	h := NewHub(nil)
	h.Publish(Event{Type: "sale_created", Message: "Sale saved", Data: map[string]string{"id": "abc"}})

	select {
	case msg := <-h.Broadcast:
		var got Event
		if err := json.Unmarshal(msg, &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Type != "sale_created" || got.Message != "Sale saved" {
			t.Fatalf("unexpected event: %+v", got)
		}
	default:
		t.Fatal("expected a queued message")
	}
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	h := NewHub(nil)
	for i := 0; i < cap(h.Broadcast)+5; i++ {
		h.Publish(Event{Type: "sale_created"})
	}
	if len(h.Broadcast) != cap(h.Broadcast) {
		t.Fatalf("expected full queue, got %d/%d", len(h.Broadcast), cap(h.Broadcast))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	h.Publish(Event{Type: "sale_created"})
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
}

func TestRegisterAfterStopDoesNotBlock(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	result := make(chan bool, 1)
	go func() {
		ok := h.register(nil)
		h.unregister(nil)
		result <- ok
	}()
	select {
	case ok := <-result:
		if ok {
			t.Fatal("register succeeded on a stopped hub")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("register or unregister blocked after Run returned")
	}
}
