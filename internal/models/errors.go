package models

import "errors"

var (
	// ErrRoomNotFound is returned when a join link does not resolve to a live room.
	ErrRoomNotFound = errors.New("RoomNotFound")
	// ErrUnknownSession marks a reference to a random session that no longer exists.
	ErrUnknownSession = errors.New("unknown session")
	// ErrMissingIdentity marks an operation on a connection that never registered.
	ErrMissingIdentity = errors.New("missing identity")
	// ErrBadPayload is returned for frames that do not match the event's payload shape.
	ErrBadPayload = errors.New("bad_payload")
)
