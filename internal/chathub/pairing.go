package chathub

import (
	"time"

	"boting/backend/internal/config"
	"boting/backend/internal/models"

	"github.com/google/uuid"
)

type pairing struct {
	session *models.RandomSession
	timer   Timer
}

// PairingTable tracks active random chat sessions and their expiry timers.
// Each connection takes part in at most one session.
type PairingTable struct {
	sessions map[string]*pairing
	byConn   map[string]string

	ttl       time.Duration
	scheduler Scheduler
	onExpire  func(sessionID string)
	sender    Sender
	sink      LifecycleSink

	newID func() string
	now   func() time.Time
}

// NewPairingTable creates an empty table. onExpire is invoked from the
// scheduler's goroutine when a session's lifetime runs out; it must only
// hand the id back to the event loop.
func NewPairingTable(ttl time.Duration, scheduler Scheduler, sender Sender, onExpire func(sessionID string), sink LifecycleSink) *PairingTable {
	if ttl <= 0 {
		ttl = config.DefaultSessionTTL
	}
	if scheduler == nil {
		scheduler = SystemScheduler
	}
	return &PairingTable{
		sessions:  make(map[string]*pairing),
		byConn:    make(map[string]string),
		ttl:       ttl,
		scheduler: scheduler,
		onExpire:  onExpire,
		sender:    sender,
		sink:      sink,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Start pairs a and b and arms the expiry timer.
func (t *PairingTable) Start(a, b models.Seeker) *models.RandomSession {
	s := &models.RandomSession{
		SessionID:    t.newID(),
		ParticipantA: a,
		ParticipantB: b,
		StartedAt:    t.now().UTC(),
	}
	p := &pairing{session: s}
	t.sessions[s.SessionID] = p
	t.byConn[a.ConnID] = s.SessionID
	t.byConn[b.ConnID] = s.SessionID

	if t.onExpire != nil {
		id := s.SessionID
		p.timer = t.scheduler.AfterFunc(t.ttl, func() { t.onExpire(id) })
	}

	logger("chathub.pairing").Info().Str("session", s.SessionID).Str("a", a.ConnID).Str("b", b.ConnID).Dur("ttl", t.ttl).Msg("session started")
	record(t.sink, models.LifecycleEvent{
		Kind:        models.LifecycleSessionStarted,
		SessionID:   s.SessionID,
		Connections: []string{a.ConnID, b.ConnID},
		At:          s.StartedAt,
	})
	return s
}

// SessionOf returns the session connID takes part in.
func (t *PairingTable) SessionOf(connID string) (*models.RandomSession, bool) {
	id, ok := t.byConn[connID]
	if !ok {
		return nil, false
	}
	return t.Get(id)
}

// Get returns the session with sessionID.
func (t *PairingTable) Get(sessionID string) (*models.RandomSession, bool) {
	p, ok := t.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return p.session, true
}

// Relay forwards a message from one participant to the other. It is a no-op
// for unknown sessions and senders that are not part of the session.
func (t *PairingTable) Relay(sessionID, from string, msg models.RandomMessage) bool {
	p, ok := t.sessions[sessionID]
	if !ok {
		logger("chathub.pairing").Debug().Err(models.ErrUnknownSession).Str("session", sessionID).Str("conn", from).Msg("relay dropped")
		return false
	}
	peer, ok := p.session.Peer(from)
	if !ok {
		logger("chathub.pairing").Debug().Str("session", sessionID).Str("conn", from).Msg("relay from non-participant dropped")
		return false
	}

	author := msg.Author
	if author == "" {
		if self, ok := p.session.Peer(peer.ConnID); ok {
			author = self.DisplayName
		}
	}
	return deliver(t.sender, peer.ConnID, models.EventMessageReceived, models.RandomMessageReceived{
		SessionID: sessionID,
		Author:    author,
		Message:   msg.Message,
		Time:      t.now().UTC().Format(time.RFC3339),
	})
}

// End terminates the session, notifies both participants and frees both of
// them for a new pairing. Ending an unknown session is a no-op.
func (t *PairingTable) End(sessionID string, reason models.EndReason) bool {
	p, ok := t.sessions[sessionID]
	if !ok {
		return false
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	delete(t.sessions, sessionID)
	s := p.session
	delete(t.byConn, s.ParticipantA.ConnID)
	delete(t.byConn, s.ParticipantB.ConnID)

	ended := models.SessionEnded{SessionID: sessionID, Reason: reason}
	deliver(t.sender, s.ParticipantA.ConnID, models.EventSessionEnded, ended)
	deliver(t.sender, s.ParticipantB.ConnID, models.EventSessionEnded, ended)

	logger("chathub.pairing").Info().Str("session", sessionID).Str("reason", string(reason)).Msg("session ended")
	record(t.sink, models.LifecycleEvent{
		Kind:        models.LifecycleSessionEnded,
		SessionID:   sessionID,
		Reason:      reason,
		Connections: []string{s.ParticipantA.ConnID, s.ParticipantB.ConnID},
	})
	return true
}

// StopAll disarms every expiry timer without ending the sessions.
func (t *PairingTable) StopAll() {
	for _, p := range t.sessions {
		if p.timer != nil {
			p.timer.Stop()
		}
	}
}

// Len returns the number of active sessions.
func (t *PairingTable) Len() int {
	return len(t.sessions)
}
