package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sethkontny/aaventure/internal/config"
	"github.com/sethkontny/aaventure/pkg/log"
)

// Client is one live transport endpoint. Outbound frames go through a
// buffered send channel so a slow reader never blocks a fanout.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	hub       *Hub
	cfg       config.WebSocketConfig
	closeOnce sync.Once
	onClose   func()
}

func NewClient(id string, h *Hub, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, 256),
		hub:  h,
		cfg:  cfg,
	}
}

// SetOnClose installs the cleanup hook run exactly once when the read
// pump exits, no matter how the connection dies.
func (c *Client) SetOnClose(fn func()) {
	c.onClose = fn
}

// ReadPump reads frames until the connection dies and hands each one to
// the handler. Cleanup is deferred so unregister runs on every exit
// path, including duplicate transport close notifications.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		c.closeOnce.Do(func() {
			if c.onClose != nil {
				c.onClose()
			}
			c.hub.Remove(c)
			c.Conn.Close()
		})
	}()

	c.Conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.L().Debug().Str(log.FieldConnID, c.ID).Err(err).Msg("websocket read error")
			}
			break
		}

		handler(c, message)
	}
}

// WritePump drains the send channel onto the wire and keeps the
// connection alive with ping frames.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue offers a frame to the send channel without blocking. A full
// buffer means the client has stalled; the frame is dropped and the
// client scheduled for removal.
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.Send <- data:
		return true
	default:
		go c.hub.Remove(c)
		return false
	}
}

// SendEvent marshals and enqueues one event for this client.
func (c *Client) SendEvent(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.enqueue(data)
	return nil
}
