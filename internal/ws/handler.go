package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/chainspan/chainspan/internal/trace"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	clientBuffer   = 64
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // The feed is read-only; origin policy is CORS's job.
	},
}

// Event is one sealed span pushed to observers.
type Event struct {
	Type string      `json:"type"`
	Node *trace.Node `json:"node"`
}

// Hub broadcasts sealed spans from the tracer's event channel to every
// connected WebSocket client.
type Hub struct {
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[string]chan Event
}

// NewHub creates a hub consuming the given event stream. The hub stops
// when the stream is closed.
func NewHub(events <-chan *trace.Node, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		logger:  logger,
		clients: make(map[string]chan Event),
	}
	go h.fanOut(events)
	return h
}

// fanOut relays sealed spans to all clients, dropping per-client when a
// client's buffer is full.
func (h *Hub) fanOut(events <-chan *trace.Node) {
	for node := range events {
		event := Event{Type: "span_finished", Node: node}

		h.mu.RLock()
		for clientID, ch := range h.clients {
			select {
			case ch <- event:
			default:
				h.logger.Warn("slow websocket client, dropping event",
					zap.String("client_id", clientID),
					zap.String("trace_id", node.ID))
			}
		}
		h.mu.RUnlock()
	}

	h.mu.Lock()
	for _, ch := range h.clients {
		close(ch)
	}
	h.clients = make(map[string]chan Event)
	h.mu.Unlock()
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register() (string, chan Event) {
	clientID := uuid.New().String()
	ch := make(chan Event, clientBuffer)

	h.mu.Lock()
	h.clients[clientID] = ch
	h.mu.Unlock()

	return clientID, ch
}

func (h *Hub) unregister(clientID string) {
	h.mu.Lock()
	if ch, ok := h.clients[clientID]; ok {
		delete(h.clients, clientID)
		close(ch)
	}
	h.mu.Unlock()
}

// HandleConnection upgrades the request and streams span events until
// the client disconnects.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	clientID, events := h.register()
	defer h.unregister(clientID)

	h.logger.Info("span feed client connected", zap.String("client_id", clientID))

	// Discard inbound frames; the read pump only detects disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(maxMessageSize)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("span feed write failed",
					zap.String("client_id", clientID),
					zap.Error(err))
				return
			}
		}
	}
}
