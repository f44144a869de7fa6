package chathub

import "boting/backend/internal/models"

// Relay fans room messages out to the other members of a room.
type Relay struct {
	rooms  *RoomDirectory
	sender Sender
}

// NewRelay creates a Relay over rooms delivering through sender.
func NewRelay(rooms *RoomDirectory, sender Sender) *Relay {
	return &Relay{rooms: rooms, sender: sender}
}

// Broadcast delivers event to every member of roomID except from and returns
// how many members accepted it. An unknown room delivers nothing.
func (r *Relay) Broadcast(roomID, from, event string, data any) int {
	members := r.rooms.Members(roomID)
	if len(members) == 0 {
		return 0
	}
	env, err := models.NewEnvelope(event, data)
	if err != nil {
		logger("chathub.relay").Error().Err(err).Str("room", roomID).Msg("failed to encode broadcast")
		return 0
	}

	delivered := 0
	for _, connID := range members {
		if connID == from {
			continue
		}
		if r.sender.Send(connID, env) {
			delivered++
		}
	}
	return delivered
}
