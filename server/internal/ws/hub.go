package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/semmelweis/clinicstats/server/internal/mortality"
	"github.com/semmelweis/clinicstats/server/internal/store"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	// maxFilterSize bounds one inbound filter message.
	maxFilterSize = 4096
)

// Events sent to clients.
const (
	EventSession = "session"
	EventView    = "view"
	EventError   = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins; callers should apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Event   string          `json:"event"`
	Session string          `json:"session,omitempty"`
	Data    *mortality.View `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Hub manages WebSocket dashboard sessions. Each session keeps its own filter
// and receives a freshly computed view whenever the filter changes or the
// store holds a newer dataset.
type Hub struct {
	store     *store.Store
	interval  time.Duration
	threshold func() int

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected dashboard session.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu        sync.Mutex
	filter    Filter
	version   uint64 // dataset version of the last view sent
	threshold int    // default threshold of the last view sent
}

// New creates a Hub that reads from st and checks for new datasets every
// interval. threshold supplies the default split year; nil means
// mortality.ThresholdYear.
func New(st *store.Store, interval time.Duration, threshold func() int) *Hub {
	if threshold == nil {
		threshold = func() int { return mortality.ThresholdYear }
	}
	return &Hub{
		store:     st,
		interval:  interval,
		threshold: threshold,
		clients:   make(map[*client]struct{}),
	}
}

// Run starts the broadcast ticker loop. On each tick every session whose last
// view is out of date gets a new one. Run blocks until ctx is cancelled, then
// closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast()
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves one session.
// It sends the session id and the default view immediately, then applies
// filter messages from the client until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	slog.Debug("ws: session opened", "session", c.id, "remote", r.RemoteAddr)

	// Hold c.mu across registration so a concurrent tick cannot send the
	// initial view a second time.
	c.mu.Lock()
	h.register(c)
	h.deliver(c, Message{Event: EventSession, Session: c.id})
	h.pushLocked(c, true)
	c.mu.Unlock()
	defer h.unregister(c)

	go c.writePump()
	h.readPump(c) // blocks until connection closes

	slog.Debug("ws: session closed", "session", c.id)
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

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

func (h *Hub) broadcast() {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.push(c, false)
	}
}

// push computes and sends the session's view. Unless force is set, nothing is
// sent when the session already has a view of the current dataset and
// threshold. Nothing is sent before the first dataset is loaded.
func (h *Hub) push(c *client, force bool) {
	// c.mu is held until the message is queued so a push cannot overtake a
	// concurrent filter change.
	c.mu.Lock()
	defer c.mu.Unlock()
	h.pushLocked(c, force)
}

// pushLocked is push with c.mu already held.
func (h *Hub) pushLocked(c *client, force bool) {
	e, ok := h.store.Current()
	if !ok {
		return
	}
	threshold := h.threshold()

	if !force && c.version == e.Version && c.threshold == threshold {
		return
	}
	c.version, c.threshold = e.Version, threshold

	msg, err := c.filter.view(e, threshold)
	if err != nil {
		// The filter was valid when applied; it can only fail against a
		// reloaded dataset.
		h.deliver(c, Message{Event: EventError, Error: err.Error()})
		return
	}
	h.deliver(c, msg)
}

// apply validates f against the current dataset and, if it is valid, makes it
// the session's filter and sends the resulting view. An invalid filter is
// reported to the client and the previous filter stays active. Before the
// first dataset is loaded the filter is stored as is.
func (h *Hub) apply(c *client, f Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := h.store.Current()
	if !ok {
		c.filter = f
		return
	}
	threshold := h.threshold()

	msg, err := f.view(e, threshold)
	if err != nil {
		h.deliver(c, Message{Event: EventError, Error: err.Error()})
		return
	}
	c.filter = f
	c.version, c.threshold = e.Version, threshold
	h.deliver(c, msg)
}

// deliver encodes msg and queues it for c. A client whose buffer is full is
// disconnected. The send happens under the read lock so it cannot race with
// unregister closing the channel.
func (h *Hub) deliver(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("ws: encode message", "session", c.id, "err", err)
		return
	}

	h.mu.RLock()
	if _, ok := h.clients[c]; !ok {
		h.mu.RUnlock()
		return
	}
	full := false
	select {
	case c.send <- data:
	default:
		full = true
	}
	h.mu.RUnlock()

	if full {
		slog.Warn("ws: client too slow, disconnecting", "session", c.id)
		h.unregister(c)
	}
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
func (c *client) writePump() {
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

// readPump reads filter messages and control frames until the connection
// closes.
func (h *Hub) readPump(c *client) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxFilterSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var f Filter
		if err := json.Unmarshal(data, &f); err != nil {
			h.deliver(c, Message{Event: EventError, Error: fmt.Sprintf("ws: decode filter: %v", err)})
			continue
		}
		h.apply(c, f)
	}
}
