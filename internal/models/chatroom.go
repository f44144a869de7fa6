package models

import "time"

// Room is the metadata of a named, link-addressable chat room.
// Membership is tracked by the room directory, not here.
type Room struct {
	// RoomID is the unique identifier for the room (UUID).
	RoomID string
	// DisplayName is the human-readable room name chosen by the creator.
	DisplayName string
	// JoinLink is the shareable code derived from RoomID at creation.
	JoinLink string
	// CreatedAt is the creation timestamp.
	CreatedAt time.Time
}

// Detail renders the room as a successful RoomDetail reply.
func (r *Room) Detail() RoomDetail {
	return RoomDetail{
		Success:  true,
		RoomID:   r.RoomID,
		RoomName: r.DisplayName,
		Link:     r.JoinLink,
		CreateAt: r.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
