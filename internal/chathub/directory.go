package chathub

import (
	"strings"
	"time"

	"boting/backend/internal/config"
	"boting/backend/internal/models"

	"github.com/google/uuid"
)

type roomEntry struct {
	room    *models.Room
	members []string
}

// RoomDirectory owns every named room, its membership and the join link index.
// A room exists exactly as long as it has at least one member.
type RoomDirectory struct {
	rooms map[string]*roomEntry
	links map[string]string

	newID func() string
	now   func() time.Time
	sink  LifecycleSink
}

// NewRoomDirectory creates an empty directory. sink may be nil.
func NewRoomDirectory(sink LifecycleSink) *RoomDirectory {
	return &RoomDirectory{
		rooms: make(map[string]*roomEntry),
		links: make(map[string]string),
		newID: uuid.NewString,
		now:   time.Now,
		sink:  sink,
	}
}

// JoinLinkFor derives the shareable code of a room id.
func JoinLinkFor(roomID string) string {
	code := strings.ReplaceAll(roomID, "-", "")
	if len(code) > config.JoinLinkLength {
		code = code[:config.JoinLinkLength]
	}
	return config.JoinLinkPrefix + strings.ToUpper(code)
}

// Create makes a new room with creator as its sole member.
func (d *RoomDirectory) Create(displayName, creator string) *models.Room {
	roomID := d.newID()
	link := JoinLinkFor(roomID)
	for d.links[link] != "" || d.rooms[roomID] != nil {
		roomID = d.newID()
		link = JoinLinkFor(roomID)
	}

	room := &models.Room{
		RoomID:      roomID,
		DisplayName: displayName,
		JoinLink:    link,
		CreatedAt:   d.now(),
	}
	d.rooms[roomID] = &roomEntry{room: room, members: []string{creator}}
	d.links[link] = roomID

	logger("chathub.rooms").Info().Str("room", roomID).Str("link", link).Str("creator", creator).Msg("room created")
	record(d.sink, models.LifecycleEvent{
		Kind:        models.LifecycleRoomCreated,
		RoomID:      roomID,
		RoomName:    displayName,
		JoinLink:    link,
		Connections: []string{creator},
	})
	return room
}

// ResolveByLink finds the live room behind a join link.
func (d *RoomDirectory) ResolveByLink(link string) (*models.Room, error) {
	roomID, ok := d.links[strings.ToUpper(strings.TrimSpace(link))]
	if !ok {
		return nil, models.ErrRoomNotFound
	}
	return d.rooms[roomID].room, nil
}

// Get returns the room with roomID.
func (d *RoomDirectory) Get(roomID string) (*models.Room, bool) {
	e, ok := d.rooms[roomID]
	if !ok {
		return nil, false
	}
	return e.room, true
}

// AddMember puts connID into the room. Adding an existing member is a no-op.
// It reports false when the room does not exist.
func (d *RoomDirectory) AddMember(roomID, connID string) bool {
	e, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	for _, m := range e.members {
		if m == connID {
			return true
		}
	}
	e.members = append(e.members, connID)
	return true
}

// RemoveMember takes connID out of the room and deletes the room once it is
// empty. It reports whether the room was deleted.
func (d *RoomDirectory) RemoveMember(roomID, connID string) bool {
	e, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	for i, m := range e.members {
		if m == connID {
			e.members = append(e.members[:i], e.members[i+1:]...)
			break
		}
	}
	if len(e.members) > 0 {
		return false
	}

	delete(d.rooms, roomID)
	delete(d.links, e.room.JoinLink)
	logger("chathub.rooms").Info().Str("room", roomID).Msg("room deleted")
	record(d.sink, models.LifecycleEvent{
		Kind:     models.LifecycleRoomDeleted,
		RoomID:   roomID,
		RoomName: e.room.DisplayName,
		JoinLink: e.room.JoinLink,
	})
	return true
}

// IsMember reports whether connID is in the room.
func (d *RoomDirectory) IsMember(roomID, connID string) bool {
	e, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	for _, m := range e.members {
		if m == connID {
			return true
		}
	}
	return false
}

// Members returns the connection ids of the room in join order.
func (d *RoomDirectory) Members(roomID string) []string {
	e, ok := d.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]string, len(e.members))
	copy(out, e.members)
	return out
}

// MembersOf returns the public identities of the room's members in join
// order. Members without a registered identity are left out.
func (d *RoomDirectory) MembersOf(roomID string, reg *Registry) []models.Member {
	members := []models.Member{}
	for _, connID := range d.Members(roomID) {
		id, err := reg.Identity(connID)
		if err != nil {
			logger("chathub.rooms").Debug().Err(err).Str("room", roomID).Str("conn", connID).Msg("member left out of listing")
			continue
		}
		members = append(members, models.Member{Username: id.DisplayName, Color: id.Color})
	}
	return members
}

// Len returns the number of live rooms.
func (d *RoomDirectory) Len() int {
	return len(d.rooms)
}
