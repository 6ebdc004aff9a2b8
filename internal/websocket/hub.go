package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/genaiplatform/backend/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the envelope pushed to connected clients.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client is one connected websocket peer, bound to an authenticated user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// Hub maintains the set of active clients and routes per-user events:
// payment status changes, completed interactions, expiring subscriptions.
type Hub struct {
	clients    map[*Client]bool
	userMap    map[string][]*Client
	broadcast  chan *broadcastMessage
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

type broadcastMessage struct {
	userID  string // empty means every client
	message Message
}

// TokenValidator resolves a raw token into a user id. The hub stays
// decoupled from the auth package through it.
type TokenValidator func(token string) (string, error)

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		userMap:    make(map[string][]*Client),
		broadcast:  make(chan *broadcastMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub main loop. Call it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.userMap[client.userID] = append(h.userMap[client.userID], client)
			h.mu.Unlock()
			logger.Debug().Str("user_id", client.userID).Msg("websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clients := h.userMap[client.userID]
				for i, c := range clients {
					if c == client {
						h.userMap[client.userID] = append(clients[:i], clients[i+1:]...)
						break
					}
				}
				if len(h.userMap[client.userID]) == 0 {
					delete(h.userMap, client.userID)
				}
			}
			h.mu.Unlock()
			logger.Debug().Str("user_id", client.userID).Msg("websocket client disconnected")

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.message)
			if err != nil {
				logger.Error().Err(err).Msg("websocket marshal failed")
				continue
			}
			h.mu.RLock()
			targets := make([]*Client, 0)
			if msg.userID == "" {
				for c := range h.clients {
					targets = append(targets, c)
				}
			} else {
				targets = append(targets, h.userMap[msg.userID]...)
			}
			h.mu.RUnlock()
			for _, c := range targets {
				select {
				case c.send <- data:
				default:
					// slow consumer, drop the frame
				}
			}
		}
	}
}

// BroadcastToUser pushes an event to every connection of one user. Safe to
// call on a nil hub so services can run without a websocket layer in tests.
func (h *Hub) BroadcastToUser(userID, eventType string, payload interface{}) {
	if h == nil {
		return
	}
	h.broadcast <- &broadcastMessage{
		userID:  userID,
		message: Message{Type: eventType, Payload: payload},
	}
}

// BroadcastAll pushes an event to every connected client.
func (h *Hub) BroadcastAll(eventType string, payload interface{}) {
	if h == nil {
		return
	}
	h.broadcast <- &broadcastMessage{
		message: Message{Type: eventType, Payload: payload},
	}
}

// ServeWS upgrades an HTTP request into a websocket connection. The token
// comes as a query parameter because browsers cannot set headers on
// websocket dials.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, validate TokenValidator) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := validate(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 64),
		userID: userID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
