package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"folio-backend/internal/middleware"
	"folio-backend/internal/models"
	"folio-backend/internal/services"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 1 << 20
)

// Hub serves chat over WebSocket. Every inbound text frame is one chat
// request; the reply goes back as normalized stream event frames.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*client
	gateway     *services.Gateway
	upgrader    websocket.Upgrader
}

func NewHub(gateway *services.Gateway, allowedOrigins string) *Hub {
	match := middleware.OriginMatcher(allowedOrigins)
	return &Hub{
		connections: make(map[uuid.UUID]*client),
		gateway:     gateway,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// non-browser clients send no Origin
				return origin == "" || match(origin)
			},
		},
	}
}

// client is one connection. Requests on it are served one at a time, so
// there is only ever one writer besides Close.
type client struct {
	id   uuid.UUID
	conn *websocket.Conn
}

func (c *client) Send(ev models.StreamEvent) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(ev)
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	c := &client{id: uuid.New(), conn: conn}
	h.registerConnection(c)
	defer h.unregisterConnection(c)

	conn.SetReadLimit(maxFrameSize)
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("WebSocket read failed", "connection", c.id, "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		h.serve(r.Context(), c, data)
	}
}

// serve answers one frame. Replies the gateway did not stream become a
// single done or error frame.
func (h *Hub) serve(ctx context.Context, c *client, data []byte) {
	var req models.ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Debug("Invalid chat frame", "connection", c.id, "error", err)
		c.Send(models.ErrorEvent(services.MissingMessageError))
		return
	}

	ctx = context.WithValue(ctx, chimiddleware.RequestIDKey, uuid.NewString())
	reply := h.gateway.Reply(ctx, req, c)
	if reply.Streamed {
		return
	}

	ev := models.DoneEvent(reply.Content)
	if reply.Error != "" {
		ev = models.ErrorEvent(reply.Error)
	}
	if err := c.Send(ev); err != nil {
		slog.Debug("Failed to write chat reply", "connection", c.id, "error", err)
	}
}

func (h *Hub) registerConnection(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[c.id] = c
	slog.Info("WebSocket connected", "connection", c.id, "total", len(h.connections))
}

func (h *Hub) unregisterConnection(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.conn.Close()
	delete(h.connections, c.id)
	slog.Info("WebSocket disconnected", "connection", c.id)
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Close says goodbye to every connection. Hijacked connections are not
// tracked by http.Server, so shutdown has to close them here.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range h.connections {
		c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.conn.Close()
	}
}
