package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// watchPayload is the payload of watch/unwatch messages from clients.
type watchPayload struct {
	RoomID uint `json:"room_id"`
}

// HandleIncomingMessage processes a message from a client. Clients only
// send subscription control messages; occupancy events flow the other
// way, pushed by the coordinator through the Notifier.
func HandleIncomingMessage(c *Client, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Error().Err(err).Msg("error unmarshaling client message")
		return
	}

	switch msg.Type {
	case "watch", "unwatch":
		payloadBytes, err := json.Marshal(msg.Payload)
		if err != nil {
			log.Error().Err(err).Msg("error marshaling payload")
			return
		}

		var payload watchPayload
		if err := json.Unmarshal(payloadBytes, &payload); err != nil {
			log.Error().Err(err).Msg("error unmarshaling payload")
			return
		}
		if payload.RoomID == 0 {
			return
		}

		if msg.Type == "watch" {
			c.watchRoom(payload.RoomID)
		} else {
			c.unwatchRoom(payload.RoomID)
		}
	default:
		log.Debug().Str("type", msg.Type).Msg("ignoring unknown client message type")
	}
}

// HubNotifier adapts the global hub to the coordinator's Notifier
// interface.
type HubNotifier struct{}

// RoomEvent pushes an occupancy event to everyone watching the room.
func (HubNotifier) RoomEvent(roomID uint, event string, payload interface{}) {
	BroadcastToRoom(roomID, event, payload)
}
