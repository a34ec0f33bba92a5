package streaming

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/appgenius/appgenius/internal/common/logger"
	"github.com/appgenius/appgenius/internal/events/bus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, validate origin
		return true
	},
}

// WSHandler handles WebSocket connections
type WSHandler struct {
	hub    *Hub
	logger *logger.Logger
}

// NewWSHandler creates a new WebSocket handler
func NewWSHandler(hub *Hub, log *logger.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		logger: log.WithFields(zap.String("component", "ws_handler")),
	}
}

// Watch upgrades the connection; the client then subscribes to project ids
// with subscription messages
// WS /api/v1/ws
func (h *WSHandler) Watch(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	client := NewClient(uuid.New().String(), conn, h.hub, h.logger)
	h.hub.Register(client)

	h.logger.Info("WebSocket connection established", zap.String("client_id", client.ID))

	go client.writePump()
	go client.readPump()
}

// BridgeBus forwards generation events from the event bus into the hub.
// Returns the subscription so the caller can tear it down on shutdown.
func BridgeBus(eventBus bus.EventBus, hub *Hub, log *logger.Logger) (bus.Subscription, error) {
	return eventBus.Subscribe("generation.>", func(ctx context.Context, event *bus.Event) error {
		projectID, _ := event.Data["projectId"].(string)
		if projectID == "" {
			log.Debug("event without project id dropped", zap.String("type", event.Type))
			return nil
		}
		hub.Broadcast(projectID, event)
		return nil
	})
}

// SetupRoutes configures the WebSocket route
func SetupRoutes(router *gin.RouterGroup, hub *Hub, log *logger.Logger) {
	handler := NewWSHandler(hub, log)
	router.GET("/ws", handler.Watch)
}
