// Package hub is the delivery plane: it tracks live websocket clients
// by connection ID and pushes marshalled events onto their send
// buffers. Room membership lives in the registry, not here.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/sethkontny/aaventure/pkg/log"
)

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Add registers a client in the delivery table.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	log.L().Debug().Str(log.FieldConnID, c.ID).Msg("client attached")
}

// Remove detaches a client and closes its send channel. Safe to call
// more than once per client.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		close(c.Send)
	}
	h.mu.Unlock()
	log.L().Debug().Str(log.FieldConnID, c.ID).Msg("client detached")
}

// Send delivers one event to one connection. Returns false when the
// connection is no longer attached; delivery past that point is the
// caller's concern (signaling treats it as best-effort).
// The enqueue happens under the read lock: Remove closes the send
// channel under the write lock, so an attached client's channel cannot
// close mid-send.
func (h *Hub) Send(connID string, v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		log.L().Error().Err(err).Str(log.FieldConnID, connID).Msg("marshal outbound event")
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	c.enqueue(data)
	return true
}

// SendAll delivers one event to each listed connection, marshalling
// once. Stalled or vanished recipients are skipped; one slow client
// cannot stall the rest. Enqueues stay under the read lock for the
// same reason as Send; they never block, so the lock is held only for
// channel offers.
func (h *Hub) SendAll(connIDs []string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.L().Error().Err(err).Msg("marshal outbound event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range connIDs {
		if c, ok := h.clients[id]; ok {
			c.enqueue(data)
		}
	}
}

// Len returns the number of attached clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
