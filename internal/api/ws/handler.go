package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wavecrest/desktopd/internal/infrastructure/logging"
	"github.com/wavecrest/desktopd/internal/infrastructure/monitoring"
	"github.com/wavecrest/desktopd/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Handler streams desktop repository change events to WebSocket clients.
// It implements desktop.Listener and fans every event out to all
// connected subscribers.
type Handler struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{} // Protected by mu
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a WebSocket event handler
func NewHandler(logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		clients: make(map[*websocket.Conn]struct{}),
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking to the handler
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// HandleConnection handles WebSocket upgrade and keeps the connection
// subscribed until the client goes away
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.addClient(conn)
	defer h.removeClient(conn)

	h.send(conn, gin.H{
		"type":    "system",
		"message": "Connected to desktopd event stream",
	})

	// Read loop: only pings are expected from clients; any read error
	// ends the subscription.
	for {
		var msg types.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Type == "ping" {
			h.send(conn, gin.H{"type": "pong"})
		}
	}
}

// OnTaskAdded implements desktop.Listener
func (h *Handler) OnTaskAdded(displayID types.DisplayID, taskID types.TaskID) {
	h.broadcast(types.DesktopEvent{
		Type:      types.EventTaskAdded,
		DisplayID: displayID,
		TaskID:    taskID,
	})
}

// OnTaskRemoved implements desktop.Listener
func (h *Handler) OnTaskRemoved(displayID types.DisplayID, taskID types.TaskID) {
	h.broadcast(types.DesktopEvent{
		Type:      types.EventTaskRemoved,
		DisplayID: displayID,
		TaskID:    taskID,
	})
}

// OnVisibilityChanged implements desktop.Listener
func (h *Handler) OnVisibilityChanged(displayID types.DisplayID, taskID types.TaskID, visible bool) {
	h.broadcast(types.DesktopEvent{
		Type:      types.EventVisibilityChanged,
		DisplayID: displayID,
		TaskID:    taskID,
		Visible:   visible,
	})
}

// OnMinimizeChanged implements desktop.Listener
func (h *Handler) OnMinimizeChanged(displayID types.DisplayID, taskID types.TaskID, minimized bool) {
	h.broadcast(types.DesktopEvent{
		Type:      types.EventMinimizeChanged,
		DisplayID: displayID,
		TaskID:    taskID,
		Minimized: minimized,
	})
}

func (h *Handler) broadcast(event types.DesktopEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Handler) addClient(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSConnections.Set(float64(n))
	}
}

func (h *Handler) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	n := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSConnections.Set(float64(n))
	}
}

func (h *Handler) send(conn *websocket.Conn, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := conn.WriteJSON(payload); err != nil {
		h.logger.Debug("WebSocket write failed", zap.Error(err))
	}
}
