package hub

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sethkontny/aaventure/internal/config"
)

func wsCfg() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
	}
}

// newTestClient builds a client without a live socket; only the send
// buffer side is exercised here.
func newTestClient(h *Hub, id string) *Client {
	return NewClient(id, h, nil, wsCfg())
}

func TestSendDeliversToAttachedClient(t *testing.T) {
	h := New()
	c := newTestClient(h, "c1")
	h.Add(c)

	payload := map[string]string{"type": "pong"}
	if !h.Send("c1", payload) {
		t.Fatal("send to attached client returned false")
	}

	select {
	case data := <-c.Send:
		var got map[string]string
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got["type"] != "pong" {
			t.Fatalf("unexpected frame: %s", data)
		}
	default:
		t.Fatal("nothing enqueued")
	}
}

func TestSendToDetachedClient(t *testing.T) {
	h := New()

	if h.Send("nobody", map[string]string{"type": "pong"}) {
		t.Fatal("send to unknown connection must return false")
	}
}

func TestSendAllSkipsMissingRecipients(t *testing.T) {
	h := New()
	c1 := newTestClient(h, "c1")
	c2 := newTestClient(h, "c2")
	h.Add(c1)
	h.Add(c2)

	h.SendAll([]string{"c1", "ghost", "c2"}, map[string]string{"type": "new-message"})

	for _, c := range []*Client{c1, c2} {
		select {
		case <-c.Send:
		default:
			t.Fatalf("%s: nothing enqueued", c.ID)
		}
	}
}

func TestRemoveTwiceIsSafe(t *testing.T) {
	h := New()
	c := newTestClient(h, "c1")
	h.Add(c)

	h.Remove(c)
	h.Remove(c)

	if h.Len() != 0 {
		t.Fatalf("expected empty hub, got %d", h.Len())
	}
	if h.Send("c1", "x") {
		t.Fatal("send after remove must return false")
	}
}

func TestFullBufferDropsInsteadOfBlocking(t *testing.T) {
	h := New()
	c := newTestClient(h, "c1")
	h.Add(c)

	// Fill the send buffer; the next enqueue must return immediately.
	for i := 0; i < cap(c.Send); i++ {
		if !c.enqueue([]byte("x")) {
			t.Fatalf("enqueue %d failed before buffer was full", i)
		}
	}

	done := make(chan bool, 1)
	go func() {
		done <- c.enqueue([]byte("overflow"))
	}()

	select {
	case accepted := <-done:
		if accepted {
			t.Fatal("overflow frame must be dropped")
		}
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full buffer")
	}
}

func TestConcurrentFanoutAndRemove(t *testing.T) {
	// A disconnect racing a room fanout must never send on the closed
	// channel; the send must either land before the close or be
	// skipped once the client is detached.
	for i := 0; i < 1000; i++ {
		h := New()
		c := newTestClient(h, "c1")
		h.Add(c)

		start := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			h.SendAll([]string{"c1"}, map[string]string{"type": "new-message"})
		}()
		go func() {
			defer wg.Done()
			<-start
			h.Remove(c)
		}()
		close(start)
		wg.Wait()
	}
}

func TestLenTracksAttachedClients(t *testing.T) {
	h := New()
	if h.Len() != 0 {
		t.Fatalf("fresh hub not empty: %d", h.Len())
	}

	c1 := newTestClient(h, "c1")
	c2 := newTestClient(h, "c2")
	h.Add(c1)
	h.Add(c2)
	if h.Len() != 2 {
		t.Fatalf("expected 2, got %d", h.Len())
	}

	h.Remove(c1)
	if h.Len() != 1 {
		t.Fatalf("expected 1, got %d", h.Len())
	}
}
