package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"treasure-hunt-backend/internal/models"
	"treasure-hunt-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait      = 10 * time.Second
	clientBuffer   = 32
	broadcastQueue = 256
)

type Client struct {
	Account string
	Conn    *websocket.Conn
	send    chan *Message
}

type Message struct {
	Type    string      `json:"type"`
	Account string      `json:"account,omitempty"`
	Data    interface{} `json:"data"`
}

// WebSocketHub fans game events out to connected clients. Slow clients are
// dropped rather than allowed to stall the game.
type WebSocketHub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
}

func NewWebSocketHub() *WebSocketHub {
	hub := &WebSocketHub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, broadcastQueue),
		done:       make(chan struct{}),
	}

	go hub.run()

	return hub
}

func (hub *WebSocketHub) Close() {
	close(hub.done)
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client] = true
			log.Printf("Client registered: %s", client.Account)

		case client := <-hub.unregister:
			if _, ok := hub.clients[client]; ok {
				delete(hub.clients, client)
				close(client.send)
				log.Printf("Client unregistered: %s", client.Account)
			}

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)

		case <-hub.done:
			for client := range hub.clients {
				close(client.send)
				delete(hub.clients, client)
			}
			return
		}
	}
}

func (hub *WebSocketHub) broadcastMessage(message *Message) {
	for client := range hub.clients {
		if message.Account != "" && client.Account != message.Account {
			continue
		}
		select {
		case client.send <- message:
		default:
			delete(hub.clients, client)
			close(client.send)
			log.Printf("Dropped slow client: %s", client.Account)
		}
	}
}

// BroadcastEvent queues event for every client without blocking the caller.
func (hub *WebSocketHub) BroadcastEvent(event *models.GameEvent) {
	msg := &Message{
		Type: "GAME_EVENT",
		Data: event,
	}

	select {
	case hub.broadcast <- msg:
	default:
		log.Printf("Broadcast queue full, dropping %s event", event.Type)
	}
}

var _ services.Broadcaster = (*WebSocketHub)(nil)

type WebSocketHandler struct {
	gameEngine *services.GameEngine
	hub        *WebSocketHub
}

func NewWebSocketHandler(gameEngine *services.GameEngine, hub *WebSocketHub) *WebSocketHandler {
	return &WebSocketHandler{
		gameEngine: gameEngine,
		hub:        hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	account := c.GetString("account")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		Account: account,
		Conn:    conn,
		send:    make(chan *Message, clientBuffer),
	}

	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.writePump()

	defer func() {
		select {
		case h.hub.unregister <- client:
		case <-h.hub.done:
		}
		conn.Close()
	}()

	h.hub.sendTo(client, h.stateMessage())

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *Message) {
	var reply *Message

	switch msg.Type {
	case "PING":
		reply = &Message{
			Type: "PONG",
			Data: gin.H{
				"timestamp": time.Now().Unix(),
			},
		}
	case "GET_STATE":
		reply = h.stateMessage()
	default:
		return
	}

	h.hub.sendTo(client, reply)
}

// sendTo queues msg for the connections of client's account.
func (hub *WebSocketHub) sendTo(client *Client, msg *Message) {
	msg.Account = client.Account
	select {
	case hub.broadcast <- msg:
	default:
	}
}

func (h *WebSocketHandler) stateMessage() *Message {
	return &Message{
		Type: "GAME_STATE",
		Data: h.gameEngine.State(),
	}
}

func (client *Client) writePump() {
	for msg := range client.send {
		client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.Conn.WriteJSON(msg); err != nil {
			log.Printf("Failed to write to %s: %v", client.Account, err)
			return
		}
	}
	client.Conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
