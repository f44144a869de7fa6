package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lifecycle event kinds published by the relay.
const (
	LifecycleRoomCreated    = "room_created"
	LifecycleRoomDeleted    = "room_deleted"
	LifecycleSessionStarted = "session_started"
	LifecycleSessionEnded   = "session_ended"
)

// LifecycleEvent describes a room or random session state transition.
// It never carries message content.
type LifecycleEvent struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	RoomID      string    `json:"roomId,omitempty"`
	RoomName    string    `json:"roomName,omitempty"`
	JoinLink    string    `json:"link,omitempty"`
	SessionID   string    `json:"sessionId,omitempty"`
	Reason      EndReason `json:"reason,omitempty"`
	Connections []string  `json:"connections,omitempty"`
	At          time.Time `json:"at"`
}

// RoomAudit is the persisted lifecycle record of a named room.
type RoomAudit struct {
	// RoomID is the unique identifier of the room (UUID).
	RoomID string `gorm:"primaryKey"`
	// DisplayName is the name given at creation.
	DisplayName string
	// JoinLink is the shareable code of the room.
	JoinLink string `gorm:"index"`
	// IsActive is false once the last member left.
	IsActive bool
	// CreatedAt is the timestamp when the room was created.
	CreatedAt time.Time
	// ClosedAt is set when the room is deleted.
	ClosedAt *time.Time
}

// SessionAudit is the persisted lifecycle record of a random chat session.
type SessionAudit struct {
	// SessionID is the unique identifier of the session (UUID).
	SessionID string `gorm:"primaryKey"`
	// ConnA and ConnB are the paired connection ids.
	ConnA string
	ConnB string
	// IsActive indicates whether the session is still running.
	IsActive bool
	// StartedAt is the timestamp when the pair was matched.
	StartedAt time.Time
	// EndedAt is the timestamp when the session was terminated.
	EndedAt *time.Time
	// EndReason is one of time_expired, user_left, user_disconnected.
	EndReason string
}

// BeforeCreate is a GORM hook that fills in a missing SessionID.
func (s *SessionAudit) BeforeCreate(tx *gorm.DB) (err error) {
	if s.SessionID == "" {
		s.SessionID = uuid.New().String()
	}
	return
}

// BeforeCreate is a GORM hook that fills in a missing RoomID.
func (r *RoomAudit) BeforeCreate(tx *gorm.DB) (err error) {
	if r.RoomID == "" {
		r.RoomID = uuid.New().String()
	}
	return
}
