package websocket

import (
	"encoding/json"
	"time"

	"sgti/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const (
	EventTaskCreated = "task_created"
	EventTaskUpdated = "task_updated"
	EventTaskDeleted = "task_deleted"
)

// Event is one push frame sent to connected clients.
type Event struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// Client is one authenticated WebSocket connection.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

type userEvent struct {
	userID  string
	payload []byte
}

// Hub manages WebSocket connections and routes events to every connection
// owned by the same user.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan userEvent
	Register   chan *Client
	Unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan userEvent, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run is the hub loop handling register, unregister and fan-out.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
		case event := <-h.broadcast:
			for client := range h.clients {
				if client.UserID != event.userID {
					continue
				}
				select {
				case client.Send <- event.payload:
				default:
					// Slow consumer, drop the connection
					delete(h.clients, client)
					close(client.Send)
				}
			}
		}
	}
}

// BroadcastToUser pushes one event to every connection of the given user.
func (h *Hub) BroadcastToUser(userID, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{
		Event:     eventType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		logger.ErrorLogger.Error("Error encoding websocket event", zap.Error(err))
		return
	}
	h.broadcast <- userEvent{userID: userID, payload: payload}
}

// WritePump drains the client's Send channel onto the wire. Runs in the
// connection's own goroutine; exits when the hub closes the channel.
func (c *Client) WritePump() {
	for payload := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			break
		}
	}
	c.Conn.Close()
}
