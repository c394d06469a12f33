package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Hub fans room snapshots out to subscribed sockets. Delivery is
// fire-and-forget: publishing happens after a mutation commits and never
// blocks on a slow client.
type Hub struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[int64]map[*client]struct{}
}

type client struct {
	conn  *websocket.Conn
	send  chan []byte
	rooms map[int64]struct{}
}

type inbound struct {
	Type   string `json:"type"`
	RoomID int64  `json:"room_id"`
}

type envelope struct {
	Event  string `json:"event"`
	RoomID int64  `json:"room_id"`
	Data   any    `json:"data,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		rooms:    map[int64]map[*client]struct{}{},
	}
}

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 16), rooms: map[int64]struct{}{}}
	go c.writeLoop()
	h.readLoop(c)
}

func (h *Hub) readLoop(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var in inbound
		if err := json.Unmarshal(msg, &in); err != nil {
			continue
		}
		switch in.Type {
		case "join_room":
			h.join(c, in.RoomID)
		case "leave_room":
			h.leave(c, in.RoomID)
		}
	}
}

func (c *client) writeLoop() {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

func (h *Hub) join(c *client, roomID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.rooms[roomID]
	if subs == nil {
		subs = map[*client]struct{}{}
		h.rooms[roomID] = subs
	}
	subs[c] = struct{}{}
	c.rooms[roomID] = struct{}{}
}

func (h *Hub) leave(c *client, roomID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c, roomID)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID := range c.rooms {
		h.dropLocked(c, roomID)
	}
	close(c.send)
}

func (h *Hub) dropLocked(c *client, roomID int64) {
	delete(c.rooms, roomID)
	if subs := h.rooms[roomID]; subs != nil {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Publish pushes an event to every subscriber of a room. Clients whose send
// buffer is full miss the message; they catch up on the next one.
func (h *Hub) Publish(roomID int64, event string, payload any) {
	msg, err := json.Marshal(envelope{Event: event, RoomID: roomID, Data: payload})
	if err != nil {
		log.Error().Err(err).Int64("room_id", roomID).Msg("marshal broadcast payload")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[roomID] {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Subscribers reports the current subscriber count for a room.
func (h *Hub) Subscribers(roomID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}
