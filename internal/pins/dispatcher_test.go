package pins

import (
	"context"
	"testing"
	"time"
)

func waitForChange(t *testing.T, stream <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case event := <-stream:
		return event
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for change event")
		return ChangeEvent{}
	}
}

func TestSubscribeReceivesMutationEvents(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, cleanup := store.Subscribe(ctx)
	defer cleanup()

	store.SetSelectedYear(1860)
	if event := waitForChange(t, stream); event.Kind != ChangeSelection {
		t.Fatalf("expected selection event, got %s", event.Kind)
	}

	store.SetNote("ryoma-001", "memo")
	if event := waitForChange(t, stream); event.Kind != ChangeAnnotations {
		t.Fatalf("expected annotations event, got %s", event.Kind)
	}

	store.AddCustomEvent(sampleCustomEvent(1866, "ryoma"))
	if event := waitForChange(t, stream); event.Kind != ChangeCustomContent {
		t.Fatalf("expected custom content event, got %s", event.Kind)
	}
}

func TestSlowSubscriberDropsEventsInsteadOfBlocking(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, cleanup := store.Subscribe(ctx)
	defer cleanup()

	// Overflow the subscriber buffer without draining; publishes must not
	// block the mutation path.
	for i := 0; i < 64; i++ {
		store.SetSelectedYear(1853 + i%16)
	}
	if len(stream) == 0 {
		t.Fatalf("expected buffered events")
	}
}

func TestCancelledSubscriberIsUnregistered(t *testing.T) {
	store, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	stream, _ := store.Subscribe(ctx)
	cancel()

	deadline := time.Now().Add(time.Second)
	for {
		store.events.mu.RLock()
		remaining := len(store.events.subscribers)
		store.events.mu.RUnlock()
		if remaining == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscriber not removed after cancellation")
		}
		time.Sleep(5 * time.Millisecond)
	}
	// Draining after unregistration must not panic.
	select {
	case <-stream:
	default:
	}
}
