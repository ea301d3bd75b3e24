package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mapboard/mapboard/pkg/mapstore"
)

const (
	// Time allowed to write a message to a peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from a peer.
	pongWait = 60 * time.Second

	// Send pings to a peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Outbound buffer per connection; a client that falls this far behind
	// is disconnected rather than allowed to stall the hub.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is CORS-open, so the socket is too.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub fans one process-wide store subscription out to every registered
// WebSocket connection. The clients map is confined to the run goroutine, so
// no locking is needed.
type hub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	log        *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		log:        log,
	}
}

// run consumes map set updates from sub and rebroadcasts them until ctx is
// done or the subscription ends. It takes ownership of sub and closes it on
// exit, and disconnects every registered client on every exit path so their
// write pumps terminate.
func (h *hub) run(ctx context.Context, sub *mapstore.Subscription) {
	defer sub.Close()
	defer func() {
		for c := range h.clients {
			close(c.send)
		}
		h.clients = make(map[*wsClient]bool)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = true

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case set, ok := <-sub.Events():
			if !ok {
				h.log.Warn("websocket hub subscription ended")
				return
			}
			payload, err := json.Marshal(syncEvent{Type: eventMapsUpdated, Data: set})
			if err != nil {
				h.log.Error("failed to marshal broadcast", zap.Error(err))
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// Lagging consumer: drop it so the rest keep flowing.
					h.log.Warn("websocket client send buffer full, disconnecting")
					delete(h.clients, c)
					close(c.send)
				}
			}

		case err := <-sub.Errors():
			if err == nil {
				return
			}
			h.log.Warn("dropping malformed update", zap.Error(err))
		}
	}
}

// wsClient is one WebSocket connection registered with the hub.
type wsClient struct {
	hub  *hub
	conn *websocket.Conn
	send chan []byte
}

// handleWS upgrades the connection and registers it with the hub. The hub
// pushes the same envelope the SSE endpoint uses.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &wsClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	connected, _ := json.Marshal(syncEvent{Type: eventConnected})
	c.send <- connected

	c.hub.register <- c

	go c.writePump()
	go c.readPump()
}

// readPump drains inbound frames to detect client disconnect; the sync
// protocol is one-directional, so payloads are ignored.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards broadcast payloads and keep-alive pings to the peer.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
