package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Wire event names. Room events keep the names the existing web client uses.
const (
	EventUserID         = "USERID"
	EventRegisterID     = "ID"
	EventCreateRoom     = "CreateRoom"
	EventJoinRoom       = "joinRoom"
	EventLeaveRoom      = "leaveRoom"
	EventRoomDetail     = "RoomDetail"
	EventRoomLeft       = "RoomLeft"
	EventGetMembers     = "getMembers"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"

	EventSeekPartner       = "seek_random_partner"
	EventCancelSeek        = "cancel_seek"
	EventPartnerFound      = "partner_found"
	EventSendRandomMessage = "send_random_message"
	EventMessageReceived   = "message_received"
	EventLeaveRandomChat   = "leave_random_chat"
	EventSessionEnded      = "session_ended"

	EventError = "error"
)

// Envelope is a single websocket frame: an event name plus its JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an envelope for event.
func NewEnvelope(event string, data any) (Envelope, error) {
	if data == nil {
		return Envelope{Event: event}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return Envelope{Event: event, Data: raw}, nil
}

// Decode unmarshals the envelope payload into v.
// A missing payload, or one of the wrong shape, yields ErrBadPayload.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return ErrBadPayload
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadPayload, e.Event, err)
	}
	return nil
}

// DecodeString unmarshals a payload that is a bare JSON string.
func (e Envelope) DecodeString() (string, error) {
	var s string
	if err := e.Decode(&s); err != nil {
		return "", err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrBadPayload
	}
	return s, nil
}

// IncomingEvent is an inbound frame tagged with the connection it arrived on.
type IncomingEvent struct {
	ConnID   string
	Envelope Envelope
	// Throttled marks a frame the transport refused under its rate limit.
	// The hub answers it with an error instead of handling it.
	Throttled bool
}

// IsChatEvent reports whether event carries chat content. Only these
// events count against a connection's rate limit; control events such as
// leaving or seeking always go through.
func IsChatEvent(event string) bool {
	return event == EventSendMessage || event == EventSendRandomMessage
}

// CreateRoomRequest is the CreateRoom payload.
type CreateRoomRequest struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Color    string `json:"color"`
	RoomName string `json:"roomname"`
}

// Identity extracts the identity carried by the request.
func (r CreateRoomRequest) Identity() Identity {
	return Identity{UserID: r.UserID, DisplayName: r.Username, Color: r.Color}
}

// JoinRoomRequest is the joinRoom payload.
type JoinRoomRequest struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Color    string `json:"color"`
	Link     string `json:"link"`
}

// Identity extracts the identity carried by the request.
func (r JoinRoomRequest) Identity() Identity {
	return Identity{UserID: r.UserID, DisplayName: r.Username, Color: r.Color}
}

// LeaveRoomRequest is the leaveRoom payload.
type LeaveRoomRequest struct {
	RoomID string `json:"roomid"`
}

// RoomDetail answers CreateRoom and joinRoom.
type RoomDetail struct {
	Success  bool   `json:"success"`
	RoomID   string `json:"roomid,omitempty"`
	RoomName string `json:"roomname,omitempty"`
	Link     string `json:"link,omitempty"`
	CreateAt string `json:"createat,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RoomLeft answers leaveRoom.
type RoomLeft struct {
	Success bool   `json:"success"`
	RoomID  string `json:"roomid"`
}

// Member is the public view of a room member.
type Member struct {
	Username string `json:"username"`
	Color    string `json:"color"`
}

// MembersList answers getMembers.
type MembersList struct {
	RoomID      string   `json:"roomId"`
	MemberCount int      `json:"memberCount"`
	Members     []Member `json:"members"`
}

// RoomMessage is the send_message payload.
type RoomMessage struct {
	UserID  string          `json:"userid"`
	Room    string          `json:"room"`
	Author  string          `json:"author"`
	Message string          `json:"message"`
	Color   string          `json:"color"`
	Time    json.RawMessage `json:"time,omitempty"`
}

// Received strips routing fields for fan-out as receive_message.
func (m RoomMessage) Received() ReceivedMessage {
	return ReceivedMessage{
		UserID:  m.UserID,
		Author:  m.Author,
		Message: m.Message,
		Color:   m.Color,
		Time:    m.Time,
	}
}

// ReceivedMessage is delivered to the other members of a room.
type ReceivedMessage struct {
	UserID  string          `json:"userid"`
	Author  string          `json:"author"`
	Message string          `json:"message"`
	Color   string          `json:"color"`
	Time    json.RawMessage `json:"time,omitempty"`
}

// SeekRequest is the seek_random_partner payload.
type SeekRequest struct {
	Username string `json:"username"`
}

// PartnerFound is sent to both participants of a new random session.
type PartnerFound struct {
	SessionID          string `json:"sessionId"`
	PartnerDisplayName string `json:"partnerDisplayName"`
}

// RandomMessage is the send_random_message payload.
type RandomMessage struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Author    string `json:"author"`
}

// RandomMessageReceived is delivered to the peer of a random session.
type RandomMessageReceived struct {
	SessionID string `json:"sessionId"`
	Author    string `json:"author"`
	Message   string `json:"message"`
	Time      string `json:"time"`
}

// LeaveRandomChatRequest is the leave_random_chat payload.
type LeaveRandomChatRequest struct {
	SessionID string `json:"sessionId"`
}

// SessionEnded tells both participants their random session is over.
type SessionEnded struct {
	SessionID string    `json:"sessionId"`
	Reason    EndReason `json:"reason"`
}

// ErrorPayload reports a rejected inbound frame back to its sender.
type ErrorPayload struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

// Stats is a point-in-time view of the relay state.
type Stats struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
	Waiting     int `json:"waiting"`
	Sessions    int `json:"sessions"`
}
