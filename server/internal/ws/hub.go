package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/wristcalm/wristcalm/server/internal/api"
	"github.com/wristcalm/wristcalm/server/internal/session"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

// Event names carried in Message.Event.
const (
	EventSession  = "session"
	EventExpired  = "expired"
	EventStep     = "step"
	EventComplete = "complete"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins — callers should apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Hub manages WebSocket clients watching a session and pushes the session
// view to them whenever it changes (Publish) and on every refresh tick.
type Hub struct {
	sessions   *session.Store
	interval   time.Duration
	pingPeriod time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket client.
type client struct {
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
}

// New creates a Hub that reads from st, refreshes clients every interval and
// pings idle connections every pingPeriod.
func New(st *session.Store, interval, pingPeriod time.Duration) *Hub {
	return &Hub{
		sessions:   st,
		interval:   interval,
		pingPeriod: pingPeriod,
		clients:    make(map[*client]struct{}),
	}
}

// Run starts the refresh loop. Every interval each client gets its current
// session view; clients whose session has expired get an "expired" event and
// are disconnected. Run blocks until ctx is cancelled, then closes all
// active connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.refreshAll()
		}
	}
}

// Publish sends the current view of session id to every client watching it.
func (h *Hub) Publish(id string) {
	data, err := h.buildMessage(id)
	if err != nil {
		return
	}
	for _, c := range h.targets(id) {
		h.deliver(c, data)
	}
}

// ServeHTTP upgrades the connection for the session named by the {id} route
// variable. It answers 404 without upgrading when the session is unknown,
// sends the current view immediately on connect, then streams updates.
// Blocks until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data, err := h.buildMessage(id)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		sessionID: id,
		conn:      conn,
		send:      make(chan []byte, sendBufSize),
	}
	c.send <- data
	h.register(c)
	defer h.unregister(c)

	go c.writePump(h.pingPeriod)
	c.readPump(h.pongWait()) // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

// pongWait must exceed the ping period so one missed pong is tolerated.
func (h *Hub) pongWait() time.Duration {
	return h.pingPeriod * 10 / 9
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// targets returns the clients watching id, or every client when id is empty.
func (h *Hub) targets(id string) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if id == "" || c.sessionID == id {
			out = append(out, c)
		}
	}
	return out
}

// deliver queues data for c. The membership check and the send happen under
// the read lock so a concurrent unregister cannot close c.send in between.
func (h *Hub) deliver(c *client, data []byte) {
	full := false
	h.mu.RLock()
	if _, ok := h.clients[c]; ok {
		select {
		case c.send <- data:
		default:
			full = true
		}
	}
	h.mu.RUnlock()

	if full {
		// Client's outgoing buffer is full — disconnect it.
		slog.Debug("ws: dropping slow client", "session", c.sessionID)
		h.unregister(c)
	}
}

func (h *Hub) refreshAll() {
	expired, _ := json.Marshal(Message{Event: EventExpired})
	for _, c := range h.targets("") {
		data, err := h.buildMessage(c.sessionID)
		if err != nil {
			h.deliver(c, expired)
			h.unregister(c)
			continue
		}
		h.deliver(c, data)
	}
}

func (h *Hub) buildMessage(id string) ([]byte, error) {
	s, err := h.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Event: EventSession, Data: api.BuildSession(s)})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump(pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel was closed (hub is shutting down or client removed).
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the connection to process control messages (pong,
// close) and detect disconnects. Blocks until the connection closes.
func (c *client) readPump(pongWait time.Duration) {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
