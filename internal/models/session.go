package models

import "time"

// EndReason explains why a random chat session was terminated.
type EndReason string

const (
	ReasonTimeExpired      EndReason = "time_expired"
	ReasonUserLeft         EndReason = "user_left"
	ReasonUserDisconnected EndReason = "user_disconnected"
)

// Seeker is a connection looking for (or holding) a random chat partner.
type Seeker struct {
	ConnID      string
	DisplayName string
}

// RandomSession is an active one-to-one random chat pairing.
type RandomSession struct {
	SessionID    string
	ParticipantA Seeker
	ParticipantB Seeker
	StartedAt    time.Time
}

// Peer returns the participant that is not connID.
func (s *RandomSession) Peer(connID string) (Seeker, bool) {
	switch connID {
	case s.ParticipantA.ConnID:
		return s.ParticipantB, true
	case s.ParticipantB.ConnID:
		return s.ParticipantA, true
	}
	return Seeker{}, false
}

// Has reports whether connID takes part in the session.
func (s *RandomSession) Has(connID string) bool {
	_, ok := s.Peer(connID)
	return ok
}
