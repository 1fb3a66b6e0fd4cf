package service

import (
	"encoding/json"
	"log"
	"sync"

	"sewconnect-backend/internal/model"

	"github.com/gofiber/contrib/websocket"
)

// WSClient is one connected websocket viewer. A client receives events
// only for the conversations it has subscribed to.
type WSClient struct {
	Conn     *websocket.Conn
	UserID   string
	Username string
	Send     chan []byte

	mu            sync.Mutex
	conversations map[string]bool
}

func NewWSClient(conn *websocket.Conn, userID, username string) *WSClient {
	return &WSClient{
		Conn:          conn,
		UserID:        userID,
		Username:      username,
		Send:          make(chan []byte, 256),
		conversations: make(map[string]bool),
	}
}

func (c *WSClient) SubscribeConversation(id string) {
	c.mu.Lock()
	c.conversations[id] = true
	c.mu.Unlock()
}

func (c *WSClient) UnsubscribeConversation(id string) {
	c.mu.Lock()
	delete(c.conversations, id)
	c.mu.Unlock()
}

func (c *WSClient) SubscribedTo(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversations[id]
}

type WSHub struct {
	clients    map[*WSClient]bool
	register   chan *WSClient
	unregister chan *WSClient
	broadcast  chan []byte
	mu         sync.RWMutex
	done       chan struct{}
}

func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("[WS] %s connected (total: %d)", client.Username, len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("[WS] %s disconnected (total: %d)", client.Username, len(h.clients))

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			return
		}
	}
}

func (h *WSHub) Shutdown() {
	close(h.done)
}

func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}

// Broadcast sends an event to every connected client (admin announcements).
func (h *WSHub) Broadcast(event *model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	h.broadcast <- data
}

// BroadcastToConversation sends an event to every client subscribed to the
// conversation. Slow clients are skipped rather than blocked on.
func (h *WSHub) BroadcastToConversation(conversationID string, event *model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.SubscribedTo(conversationID) {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

func (h *WSHub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
