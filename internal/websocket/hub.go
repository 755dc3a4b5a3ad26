package websocket

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Message types for real-time updates
const (
	MessageTypeNotification = "notification"
	MessageTypeUserOnline   = "user_online"
	MessageTypeUserOffline  = "user_offline"
)

// WebSocket message structure
type Message struct {
	Type   string      `json:"type"`
	UserID int         `json:"user_id,omitempty"`
	Data   interface{} `json:"data"`
	Time   int64       `json:"time"`
}

// Client represents a connected WebSocket client
type Client struct {
	ID     string
	UserID int
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan Message
}

// Hub maintains the set of active clients and delivers messages to them.
// Clients are keyed by user id; a user may have several connections open.
type Hub struct {
	Clients map[int]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan Message

	mutex sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[int]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan Message),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.Broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.Clients[client.UserID] == nil {
		h.Clients[client.UserID] = make(map[*Client]bool)
	}
	h.Clients[client.UserID][client] = true

	log.Debug().Str("client", client.ID).Int("user_id", client.UserID).
		Msg("websocket client registered")

	h.broadcastUserStatus(client.UserID, MessageTypeUserOnline)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if clients, ok := h.Clients[client.UserID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.Send)

			if len(clients) == 0 {
				delete(h.Clients, client.UserID)
				h.broadcastUserStatus(client.UserID, MessageTypeUserOffline)
			}

			log.Debug().Str("client", client.ID).Int("user_id", client.UserID).
				Msg("websocket client unregistered")
		}
	}
}

func (h *Hub) broadcastMessage(message Message) {
	// Delivery can evict slow clients, which mutates the client map, so
	// broadcasts need the write lock.
	h.mutex.Lock()
	defer h.mutex.Unlock()

	switch message.Type {
	case MessageTypeNotification:
		h.broadcastToUser(message.UserID, message)
	case MessageTypeUserOnline, MessageTypeUserOffline:
		h.broadcastToAll(message)
	}
}

func (h *Hub) broadcastToUser(userID int, message Message) {
	if clients, ok := h.Clients[userID]; ok {
		for client := range clients {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.Clients, userID)
				}
			}
		}
	}
}

func (h *Hub) broadcastToAll(message Message) {
	for userID, clients := range h.Clients {
		for client := range clients {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.Clients, userID)
				}
			}
		}
	}
}

func (h *Hub) broadcastUserStatus(userID int, messageType string) {
	message := Message{
		Type:   messageType,
		UserID: userID,
		Data:   map[string]interface{}{"user_id": userID},
	}

	// Don't broadcast to self
	for otherUserID, clients := range h.Clients {
		if otherUserID != userID {
			for client := range clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.Clients, otherUserID)
					}
				}
			}
		}
	}
}

// BroadcastNotification pushes a notification event to every open
// connection of the target user.
func (h *Hub) BroadcastNotification(userID int, data interface{}) {
	message := Message{
		Type:   MessageTypeNotification,
		UserID: userID,
		Data:   data,
	}
	h.Broadcast <- message
}

// GetOnlineUsers returns list of currently online user IDs
func (h *Hub) GetOnlineUsers() []int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var onlineUsers []int
	for userID := range h.Clients {
		onlineUsers = append(onlineUsers, userID)
	}
	return onlineUsers
}

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is left to the deployment proxy
		return true
	},
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(c *gin.Context, userID int) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		ID:     generateClientID(),
		UserID: userID,
		Hub:    h,
		Conn:   conn,
		Send:   make(chan Message, 256),
	}

	h.Register <- client

	go client.writePump()
	go client.readPump()
}

func generateClientID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "client_" + hex.EncodeToString(bytes)
}
