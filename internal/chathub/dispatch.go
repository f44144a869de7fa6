package chathub

import (
	"errors"
	"strings"

	"boting/backend/internal/models"
)

const (
	errBadPayload   = "bad_payload"
	errUnknownEvent = "unknown_event"
	errRateLimited  = "rate_limited"
)

func (m *ManagerService) handleIncoming(evt models.IncomingEvent) {
	connID := evt.ConnID
	if _, ok := m.Clients[connID]; !ok {
		logger("chathub").Debug().Str("conn", connID).Str("event", evt.Envelope.Event).Msg("event from unknown connection dropped")
		return
	}

	env := evt.Envelope
	if evt.Throttled {
		deliver(m, connID, models.EventError, models.ErrorPayload{Event: env.Event, Error: errRateLimited})
		return
	}

	var err error
	switch env.Event {
	case models.EventRegisterID:
		err = m.onRegisterID(connID, env)
	case models.EventCreateRoom:
		err = m.onCreateRoom(connID, env)
	case models.EventJoinRoom:
		err = m.onJoinRoom(connID, env)
	case models.EventLeaveRoom:
		err = m.onLeaveRoom(connID, env)
	case models.EventGetMembers:
		err = m.onGetMembers(connID, env)
	case models.EventSendMessage:
		err = m.onSendMessage(connID, env)
	case models.EventSeekPartner:
		err = m.onSeekPartner(connID, env)
	case models.EventCancelSeek:
		m.Matcher.Cancel(connID)
	case models.EventSendRandomMessage:
		err = m.onSendRandomMessage(connID, env)
	case models.EventLeaveRandomChat:
		err = m.onLeaveRandomChat(connID, env)
	default:
		deliver(m, connID, models.EventError, models.ErrorPayload{Event: env.Event, Error: errUnknownEvent})
		return
	}

	if errors.Is(err, models.ErrBadPayload) {
		logger("chathub").Debug().Err(err).Str("conn", connID).Str("event", env.Event).Msg("rejected frame")
		deliver(m, connID, models.EventError, models.ErrorPayload{Event: env.Event, Error: errBadPayload})
	} else if err != nil {
		logger("chathub").Debug().Err(err).Str("conn", connID).Str("event", env.Event).Msg("event ignored")
	}
}

func (m *ManagerService) onRegisterID(connID string, env models.Envelope) error {
	userID, err := env.DecodeString()
	if err != nil {
		return err
	}
	m.Registry.Register(connID, models.Identity{UserID: userID})
	return nil
}

// claimIdentity registers the identity carried by a room request, falling
// back to the anonymous id announced on connect.
func (m *ManagerService) claimIdentity(connID string, id models.Identity) {
	if id.UserID == "" {
		if c, ok := m.Clients[connID]; ok {
			id.UserID = c.GetUserID()
		}
	}
	m.Registry.Register(connID, id)
}

func (m *ManagerService) onCreateRoom(connID string, env models.Envelope) error {
	var req models.CreateRoomRequest
	if err := env.Decode(&req); err != nil {
		return err
	}
	m.claimIdentity(connID, req.Identity())

	if current, ok := m.Registry.RoomOf(connID); ok {
		m.leaveRoom(connID, current)
	}
	room := m.Rooms.Create(strings.TrimSpace(req.RoomName), connID)
	m.Registry.SetRoom(connID, room.RoomID)

	deliver(m, connID, models.EventRoomDetail, room.Detail())
	return nil
}

func (m *ManagerService) onJoinRoom(connID string, env models.Envelope) error {
	var req models.JoinRoomRequest
	if err := env.Decode(&req); err != nil {
		return err
	}
	m.claimIdentity(connID, req.Identity())

	room, err := m.Rooms.ResolveByLink(req.Link)
	if err != nil {
		deliver(m, connID, models.EventRoomDetail, models.RoomDetail{Success: false, Error: err.Error()})
		return nil
	}

	if current, ok := m.Registry.RoomOf(connID); ok && current != room.RoomID {
		m.leaveRoom(connID, current)
	}
	m.Rooms.AddMember(room.RoomID, connID)
	m.Registry.SetRoom(connID, room.RoomID)

	logger("chathub.rooms").Info().Str("room", room.RoomID).Str("conn", connID).Msg("member joined")
	deliver(m, connID, models.EventRoomDetail, room.Detail())
	return nil
}

func (m *ManagerService) onLeaveRoom(connID string, env models.Envelope) error {
	var req models.LeaveRoomRequest
	if err := env.Decode(&req); err != nil {
		return err
	}
	roomID := req.RoomID
	if roomID == "" {
		roomID, _ = m.Registry.RoomOf(connID)
	}
	left := roomID != "" && m.leaveRoom(connID, roomID)
	deliver(m, connID, models.EventRoomLeft, models.RoomLeft{Success: left, RoomID: roomID})
	return nil
}

func (m *ManagerService) onGetMembers(connID string, env models.Envelope) error {
	roomID, err := env.DecodeString()
	if err != nil {
		return err
	}
	members := m.Rooms.MembersOf(roomID, m.Registry)
	deliver(m, connID, models.EventGetMembers, models.MembersList{
		RoomID:      roomID,
		MemberCount: len(members),
		Members:     members,
	})
	return nil
}

func (m *ManagerService) onSendMessage(connID string, env models.Envelope) error {
	var msg models.RoomMessage
	if err := env.Decode(&msg); err != nil {
		return err
	}
	if msg.Room == "" {
		return models.ErrBadPayload
	}
	if !m.Rooms.IsMember(msg.Room, connID) {
		logger("chathub.relay").Debug().Str("room", msg.Room).Str("conn", connID).Msg("message from non-member dropped")
		return nil
	}
	m.Relay.Broadcast(msg.Room, connID, models.EventReceiveMessage, msg.Received())
	return nil
}

func (m *ManagerService) onSeekPartner(connID string, env models.Envelope) error {
	var req models.SeekRequest
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := env.Decode(&req); err != nil {
			return err
		}
	}
	name := strings.TrimSpace(req.Username)
	if name == "" {
		id, err := m.Registry.Identity(connID)
		if err != nil {
			logger("chathub.matcher").Debug().Err(err).Str("conn", connID).Msg("seeking without a display name")
		}
		name = id.DisplayName
	}
	m.Matcher.Seek(connID, name)
	return nil
}

func (m *ManagerService) onSendRandomMessage(connID string, env models.Envelope) error {
	var msg models.RandomMessage
	if err := env.Decode(&msg); err != nil {
		return err
	}
	if msg.SessionID == "" {
		return models.ErrBadPayload
	}
	m.Pairings.Relay(msg.SessionID, connID, msg)
	return nil
}

func (m *ManagerService) onLeaveRandomChat(connID string, env models.Envelope) error {
	var req models.LeaveRandomChatRequest
	if err := env.Decode(&req); err != nil {
		return err
	}
	s, ok := m.Pairings.Get(req.SessionID)
	if !ok {
		return models.ErrUnknownSession
	}
	if !s.Has(connID) {
		return nil
	}
	m.Pairings.End(s.SessionID, models.ReasonUserLeft)
	return nil
}
