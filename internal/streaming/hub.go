// Package streaming handles WebSocket connections for live generation events.
package streaming

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/appgenius/appgenius/internal/common/logger"
	"github.com/appgenius/appgenius/internal/events/bus"
)

// Client is one WebSocket connection and the set of projects it watches.
type Client struct {
	ID         string
	conn       *websocket.Conn
	projectIDs map[string]bool
	send       chan []byte
	hub        *Hub
	mu         sync.RWMutex
	logger     *logger.Logger
}

// NewClient creates a client for an upgraded connection.
func NewClient(id string, conn *websocket.Conn, hub *Hub, log *logger.Logger) *Client {
	return &Client{
		ID:         id,
		conn:       conn,
		projectIDs: make(map[string]bool),
		send:       make(chan []byte, 256),
		hub:        hub,
		logger:     log.WithFields(zap.String("client_id", id)),
	}
}

// Hub routes generation events to the clients watching each project.
type Hub struct {
	clients        map[*Client]bool
	projectClients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	mu     sync.RWMutex
	logger *logger.Logger
}

// BroadcastMessage carries one event to the watchers of one project.
type BroadcastMessage struct {
	ProjectID string
	Event     *bus.Event
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		projectClients: make(map[string]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan *BroadcastMessage, 256),
		logger:         log.WithFields(zap.String("component", "websocket_hub")),
	}
}

// Run processes registrations and broadcasts until the context ends.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	defer h.logger.Info("WebSocket hub stopped")

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.projectClients = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("Client registered", zap.String("client_id", client.ID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.removeClientLocked(client)
			}
			h.mu.Unlock()
			h.logger.Debug("Client unregistered", zap.String("client_id", client.ID))

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// deliver fans one event out to the project's watchers. A client whose
// send buffer is full is dropped rather than allowed to stall the hub.
func (h *Hub) deliver(msg *BroadcastMessage) {
	h.mu.RLock()
	clients := h.projectClients[msg.ProjectID]
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(msg.Event)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			h.mu.Lock()
			h.removeClientLocked(client)
			h.mu.Unlock()
			h.logger.Warn("Dropped slow client", zap.String("client_id", client.ID))
		}
	}
}

// removeClientLocked closes the client and clears it from every project
// subscription. Callers hold h.mu.
func (h *Hub) removeClientLocked(client *Client) {
	close(client.send)
	delete(h.clients, client)
	for projectID := range client.projectIDs {
		if watchers, ok := h.projectClients[projectID]; ok {
			delete(watchers, client)
			if len(watchers) == 0 {
				delete(h.projectClients, projectID)
			}
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues an event for all clients watching a project.
func (h *Hub) Broadcast(projectID string, event *bus.Event) {
	h.broadcast <- &BroadcastMessage{
		ProjectID: projectID,
		Event:     event,
	}
}

// SubscribeClient adds a client to a project's watcher set.
func (h *Hub) SubscribeClient(client *Client, projectID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.projectClients[projectID]; !ok {
		h.projectClients[projectID] = make(map[*Client]bool)
	}
	h.projectClients[projectID][client] = true
	h.logger.Debug("Client subscribed to project",
		zap.String("client_id", client.ID),
		zap.String("project_id", projectID))
}

// UnsubscribeClient removes a client from a project's watcher set.
func (h *Hub) UnsubscribeClient(client *Client, projectID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if watchers, ok := h.projectClients[projectID]; ok {
		delete(watchers, client)
		if len(watchers) == 0 {
			delete(h.projectClients, projectID)
		}
	}
	h.logger.Debug("Client unsubscribed from project",
		zap.String("client_id", client.ID),
		zap.String("project_id", projectID))
}
