package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeDocumentCreated, Data: map[string]string{"slug": "alice"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: document.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"slug":"alice"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

// drain collects whatever is buffered on ch and counts messages by event type.
func drain(ch chan []byte) map[string]int {
	counts := make(map[string]int)
	for {
		select {
		case msg := <-ch:
			line, _, _ := strings.Cut(string(msg), "\n")
			counts[strings.TrimPrefix(line, "event: ")]++
		default:
			return counts
		}
	}
}

func TestPublishDocumentEvent_CatalogThrottle(t *testing.T) {
	b := NewBroker(300 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent("created", "alice")
	b.PublishDocumentEvent("updated", "bob")
	b.PublishDocumentEvent("deleted", "carol")

	time.Sleep(50 * time.Millisecond)
	counts := drain(ch)
	if counts[TypeDocumentCreated] != 1 || counts[TypeDocumentUpdated] != 1 || counts[TypeDocumentDeleted] != 1 {
		t.Errorf("document events = %v", counts)
	}
	if counts[TypeCatalogUpdated] != 1 {
		t.Errorf("catalog events = %d, want 1 (throttled)", counts[TypeCatalogUpdated])
	}

	// Changes inside the window produce a single trailing catalog.updated.
	time.Sleep(400 * time.Millisecond)
	counts = drain(ch)
	if counts[TypeCatalogUpdated] != 1 {
		t.Errorf("trailing catalog events = %d, want 1", counts[TypeCatalogUpdated])
	}
}

func TestPublishDocumentEvent_Payload(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent("reverted", "winterfell")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.HasPrefix(s, "event: document.reverted\n") {
			t.Errorf("unexpected event line in %q", s)
		}
		if !strings.Contains(s, `"slug":"winterfell"`) {
			t.Errorf("missing slug in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishDocumentEvent_UnknownKindIgnored(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent("renamed", "x")
	time.Sleep(50 * time.Millisecond)
	if counts := drain(ch); len(counts) != 0 {
		t.Errorf("unexpected events: %v", counts)
	}
}

func TestEventType(t *testing.T) {
	cases := map[string]string{
		"created":  TypeDocumentCreated,
		"updated":  TypeDocumentUpdated,
		"deleted":  TypeDocumentDeleted,
		"reverted": TypeDocumentReverted,
		"moved":    "",
	}
	for kind, want := range cases {
		if got := EventType(kind); got != want {
			t.Errorf("EventType(%q) = %q, want %q", kind, got, want)
		}
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: TypeDocumentUpdated, Data: map[string]string{"slug": "x"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: document.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: TypeDocumentUpdated, Data: map[string]string{"slug": "x"}})
	b.PublishDocumentEvent("updated", "x")
}
