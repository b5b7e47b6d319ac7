package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/cardsmith/blackjack-be/internal/game"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now, customize this in production
	},
}

// Message represents a WebSocket message
type Message struct {
	Type     string      `json:"type"`
	RoundID  string      `json:"roundId,omitempty"`
	PlayerID string      `json:"playerId,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string
	hub      *Hub
}

// Hub maintains the set of active clients and pushes round updates to them
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	playerMap  map[string]map[*Client]bool
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		playerMap:  make(map[string]map[*Client]bool),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true

			if client.playerID != "" {
				if _, exists := h.playerMap[client.playerID]; !exists {
					h.playerMap[client.playerID] = make(map[*Client]bool)
				}
				h.playerMap[client.playerID][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				if client.playerID != "" && h.playerMap[client.playerID] != nil {
					delete(h.playerMap[client.playerID], client)
					if len(h.playerMap[client.playerID]) == 0 {
						delete(h.playerMap, client.playerID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastRoundUpdate pushes a round snapshot to every connection the
// owning player has open.
func (h *Hub) BroadcastRoundUpdate(st game.State) {
	msg := Message{
		Type:     "roundUpdate",
		RoundID:  st.ID,
		PlayerID: st.PlayerID,
		Data:     st,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling round update: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.playerMap[st.PlayerID] {
		select {
		case client.send <- data:
		default:
			// If client buffer is full, we'll handle on next write
		}
	}
}

// SendToPlayer sends a message to a specific player
func (h *Hub) SendToPlayer(playerID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.playerMap[playerID] {
		select {
		case client.send <- data:
		default:
			// If client buffer is full, we'll handle on next write
		}
	}
}

// WebSocketHandler handles WebSocket connections
func (h *Hub) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	playerID := r.URL.Query().Get("playerId")

	client := &Client{
		conn:     conn,
		send:     make(chan []byte, 256),
		playerID: playerID,
		hub:      h,
	}
	h.register <- client

	welcomeMsg := Message{
		Type: "welcome",
		Data: map[string]string{
			"message":  "Connected to blackjack round server",
			"playerId": playerID,
		},
	}
	welcomeData, _ := json.Marshal(welcomeMsg)
	client.send <- welcomeData

	go client.readPump()
	go client.writePump()
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		// Round actions arrive over the REST API; the socket is push-only.
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
