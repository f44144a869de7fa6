package chathub

import (
	"container/list"

	"boting/backend/internal/models"
)

// MatcherService pairs strangers for random chat. Seekers wait in strict
// arrival order; the oldest waiter is matched with the next arrival.
type MatcherService struct {
	pool  *list.List
	index map[string]*list.Element

	pairings *PairingTable
	sender   Sender
}

// NewMatcherService creates a matcher that opens sessions in pairings.
func NewMatcherService(pairings *PairingTable, sender Sender) *MatcherService {
	return &MatcherService{
		pool:     list.New(),
		index:    make(map[string]*list.Element),
		pairings: pairings,
		sender:   sender,
	}
}

// Seek enters connID into matchmaking. If somebody is already waiting, the
// two are paired at once and both receive partner_found. A connection that
// is already waiting or already paired is left as it is.
func (m *MatcherService) Seek(connID, displayName string) (*models.RandomSession, bool) {
	if _, waiting := m.index[connID]; waiting {
		return nil, false
	}
	if _, paired := m.pairings.SessionOf(connID); paired {
		logger("chathub.matcher").Debug().Str("conn", connID).Msg("seek ignored, already paired")
		return nil, false
	}

	seeker := models.Seeker{ConnID: connID, DisplayName: displayName}
	head := m.pool.Front()
	if head == nil {
		m.index[connID] = m.pool.PushBack(seeker)
		logger("chathub.matcher").Debug().Str("conn", connID).Int("waiting", m.pool.Len()).Msg("seeker queued")
		return nil, false
	}

	waiter := m.pool.Remove(head).(models.Seeker)
	delete(m.index, waiter.ConnID)

	s := m.pairings.Start(waiter, seeker)
	deliver(m.sender, waiter.ConnID, models.EventPartnerFound, models.PartnerFound{
		SessionID:          s.SessionID,
		PartnerDisplayName: seeker.DisplayName,
	})
	deliver(m.sender, seeker.ConnID, models.EventPartnerFound, models.PartnerFound{
		SessionID:          s.SessionID,
		PartnerDisplayName: waiter.DisplayName,
	})
	return s, true
}

// Cancel removes connID from the waiting pool and reports whether it was there.
func (m *MatcherService) Cancel(connID string) bool {
	e, ok := m.index[connID]
	if !ok {
		return false
	}
	m.pool.Remove(e)
	delete(m.index, connID)
	return true
}

// Waiting reports whether connID is in the pool.
func (m *MatcherService) Waiting(connID string) bool {
	_, ok := m.index[connID]
	return ok
}

// Len returns the number of waiting seekers.
func (m *MatcherService) Len() int {
	return m.pool.Len()
}
