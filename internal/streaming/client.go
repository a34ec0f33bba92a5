package streaming

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024 * 1024 // 1MB
)

// SubscriptionMessage is the only message clients send: it adds or
// removes the projects whose generation events they want to watch.
type SubscriptionMessage struct {
	Action     string   `json:"action"` // subscribe, unsubscribe
	ProjectIDs []string `json:"project_ids"`
}

// readPump consumes subscription messages until the connection drops,
// then unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		c.handleSubscription(message)
	}
}

func (c *Client) handleSubscription(message []byte) {
	var msg SubscriptionMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("Invalid subscription message", zap.Error(err))
		return
	}

	switch msg.Action {
	case "subscribe":
		for _, projectID := range msg.ProjectIDs {
			c.mu.Lock()
			c.projectIDs[projectID] = true
			c.mu.Unlock()
			c.hub.SubscribeClient(c, projectID)
		}
	case "unsubscribe":
		for _, projectID := range msg.ProjectIDs {
			c.mu.Lock()
			delete(c.projectIDs, projectID)
			c.mu.Unlock()
			c.hub.UnsubscribeClient(c, projectID)
		}
	default:
		c.logger.Warn("Unknown action", zap.String("action", msg.Action))
	}
}

// writePump drains the send channel onto the connection and keeps the
// connection alive with pings. Queued events are coalesced into one
// WebSocket message, newline separated.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			queued := len(c.send)
			for i := 0; i < queued; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
