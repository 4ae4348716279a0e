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

	b.Publish(Event{Type: "tree.changed", Data: map[string]string{"path": "a.md"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: tree.changed") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"a.md"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestPublishTreeEvent(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishTreeEvent("rename", "/ws/B.md.d")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: tree.changed") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"op":"rename"`) || !strings.Contains(s, `"path":"/ws/B.md.d"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishRefresh_Throttle(t *testing.T) {
	b := NewBroker(300 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First refresh goes out immediately.
	b.PublishRefresh([]string{"/ws/a.md"})
	// The next two fall inside the window and are merged.
	b.PublishRefresh([]string{"/ws/b.md"})
	b.PublishRefresh([]string{"/ws/c.md", "/ws/b.md"})

	time.Sleep(50 * time.Millisecond)
	first := drain(ch)
	if len(first) != 1 || !strings.Contains(first[0], "/ws/a.md") {
		t.Fatalf("first window = %q, want one refresh for a.md", first)
	}

	time.Sleep(400 * time.Millisecond)
	second := drain(ch)
	if len(second) != 1 {
		t.Fatalf("second window = %q, want one merged refresh", second)
	}
	if !strings.Contains(second[0], "event: tree.refresh") ||
		!strings.Contains(second[0], `["/ws/b.md","/ws/c.md"]`) {
		t.Errorf("merged refresh = %q", second[0])
	}
}

func TestPublishRefresh_EmptyIgnored(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishRefresh(nil)
	time.Sleep(50 * time.Millisecond)
	if got := drain(ch); len(got) != 0 {
		t.Errorf("expected nothing, got %q", got)
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

	b.PublishTreeEvent("create child", "/ws/x.md.d")
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: tree.changed") {
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
	b.Publish(Event{Type: "tree.changed", Data: map[string]string{"path": "x.md"}})
	b.PublishTreeEvent("delete", "/ws/x.md.d")
	b.PublishRefresh([]string{"/ws/x.md"})
}
