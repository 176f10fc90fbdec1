// AngelaMos | 2026
// hub.go

package feed

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
)

// Frame is one pushed snapshot: the whole collection at Version.
type Frame struct {
	Collection Collection `json:"collection"`
	Items      any        `json:"items"`
	Version    uint64     `json:"version"`
}

// Source delivers frames for a collection until the returned function is
// called. The current snapshot, if any, is delivered during Subscribe.
type Source interface {
	Subscribe(c Collection, fn func(Frame)) (unsubscribe func())
}

type HubConfig struct {
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	SendBuffer     int
	AllowedOrigins []string
}

// Hub upgrades clients to WebSocket and forwards read model frames to them.
// Each client has one writer goroutine; a client whose buffer fills up is
// disconnected.
type Hub struct {
	source   Source
	cfg      HubConfig
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

func NewHub(source Source, cfg HubConfig) *Hub {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.SendBuffer < len(LiveCollections) {
		cfg.SendBuffer = 16
	}

	h := &Hub{
		source:  source,
		cfg:     cfg,
		clients: make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// ParseCollections reads a comma separated collection list. Empty input
// selects every live collection.
func ParseCollections(raw string) ([]Collection, bool) {
	if strings.TrimSpace(raw) == "" {
		return slices.Clone(LiveCollections), true
	}

	var out []Collection
	for _, part := range strings.Split(raw, ",") {
		c := Collection(strings.TrimSpace(part))
		if !slices.Contains(LiveCollections, c) {
			return nil, false
		}
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out, true
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	collections, ok := ParseCollections(r.URL.Query().Get("collections"))
	if !ok {
		core.BadRequest(w, "collections must be a subset of shelves,cabinets,folders,records")
		return
	}

	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		core.JSONError(w, core.NewAppError(
			nil,
			"server is shutting down",
			http.StatusServiceUnavailable,
			"SHUTTING_DOWN",
		))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan Frame, h.cfg.SendBuffer),
		done: make(chan struct{}),
	}
	if !h.add(c) {
		_ = conn.Close() //nolint:errcheck // hub already closed
		return
	}
	defer h.remove(c)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.writeLoop(c)
	}()

	unsubs := make([]func(), 0, len(collections))
	for _, col := range collections {
		unsubs = append(unsubs, h.source.Subscribe(col, c.offer))
	}
	defer func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}()

	h.readLoop(c)
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown disconnects every client and waits for their writers to exit.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		c.close()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// readLoop discards client messages; it exists to process control frames
// and notice disconnects.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(4096)
	deadline := func() time.Time { return time.Now().Add(2 * h.cfg.PingInterval) }

	_ = c.conn.SetReadDeadline(deadline()) //nolint:errcheck // checked on next read
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(deadline())
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
			) {
				slog.Debug("websocket read failed", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	defer c.conn.Close() //nolint:errcheck // connection is done either way

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout)) //nolint:errcheck // surfaced by WriteJSON
			if err := c.conn.WriteJSON(frame); err != nil {
				slog.Debug("websocket write failed", "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout)) //nolint:errcheck // surfaced by WriteMessage
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl( //nolint:errcheck // best-effort close frame
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(h.cfg.WriteTimeout),
			)
			return
		}
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, "*") ||
		slices.Contains(h.cfg.AllowedOrigins, origin)
}

type client struct {
	conn      *websocket.Conn
	send      chan Frame
	done      chan struct{}
	closeOnce sync.Once
}

// offer queues a frame without blocking the publisher. A full buffer means
// the client cannot keep up, so it is dropped.
func (c *client) offer(f Frame) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- f:
	default:
		slog.Warn("dropping slow websocket client", "collection", f.Collection)
		c.close()
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
