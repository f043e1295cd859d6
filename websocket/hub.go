package websocket

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub maintains the set of connected clients and fans occupancy events
// out to the clients watching each room
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Rooms mapping (roomID -> watching clients)
	rooms map[uint]map[*Client]bool

	// Mutex for rooms map
	roomsMux sync.RWMutex

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		rooms:      make(map[uint]map[*Client]bool),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)

				// Remove client from all rooms before closing its send
				// channel: broadcasters hold the rooms lock while they
				// send, so once the client is out of the maps nothing
				// can write to the channel anymore.
				h.roomsMux.Lock()
				for roomID, clients := range h.rooms {
					if _, ok := clients[client]; ok {
						delete(h.rooms[roomID], client)
						// Clean up empty rooms
						if len(h.rooms[roomID]) == 0 {
							delete(h.rooms, roomID)
						}
					}
				}
				h.roomsMux.Unlock()

				close(client.send)
			}
		}
	}
}

// watchRoom subscribes a client to a room's occupancy events
func (h *Hub) watchRoom(client *Client, roomID uint) {
	h.roomsMux.Lock()
	defer h.roomsMux.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
}

// unwatchRoom removes a client's subscription to a room
func (h *Hub) unwatchRoom(client *Client, roomID uint) {
	h.roomsMux.Lock()
	defer h.roomsMux.Unlock()

	if _, ok := h.rooms[roomID]; ok {
		delete(h.rooms[roomID], client)
		// Clean up empty rooms
		if len(h.rooms[roomID]) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// broadcastToRoom sends a message to all clients watching a room.
// Safe to call from any goroutine: it only reads the maps under the
// read lock, and hands slow consumers to the Run goroutine, which is
// the sole owner of the client maps and of closing send channels.
func (h *Hub) broadcastToRoom(roomID uint, message []byte) {
	var stale []*Client

	h.roomsMux.RLock()
	if clients, ok := h.rooms[roomID]; ok {
		for client := range clients {
			select {
			case client.send <- message:
			default:
				stale = append(stale, client)
			}
		}
	}
	h.roomsMux.RUnlock()

	// Evict after releasing the lock; the unregister handler needs it.
	for _, client := range stale {
		h.unregister <- client
	}
}

// BroadcastToRoom sends an occupancy event to all clients watching a room
func BroadcastToRoom(roomID uint, msgType string, payload interface{}) {
	msg := Message{
		Type:    msgType,
		Payload: payload,
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("error marshaling message")
		return
	}

	hub.broadcastToRoom(roomID, msgBytes)
}

// Global hub instance
var hub *Hub

// InitHub initializes the global hub
func InitHub() {
	hub = NewHub()
	go hub.Run()
}
