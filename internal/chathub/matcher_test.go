package chathub

import (
	"testing"
	"time"

	"boting/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatcher() (*MatcherService, *PairingTable, *recordingSender, *fakeScheduler) {
	sender := newRecordingSender()
	sched := &fakeScheduler{}
	pairings := NewPairingTable(time.Minute, sched, sender, func(string) {}, nil)
	return NewMatcherService(pairings, sender), pairings, sender, sched
}

func TestMatcher_FirstSeekerWaits(t *testing.T) {
	m, pairings, sender, _ := newTestMatcher()

	s, ok := m.Seek("a", "Ann")

	assert.False(t, ok)
	assert.Nil(t, s)
	assert.True(t, m.Waiting("a"))
	assert.Equal(t, 1, m.Len())
	assert.Empty(t, sender.sent["a"])
	assert.Equal(t, 0, pairings.Len())
}

func TestMatcher_SecondSeekerPairsBoth(t *testing.T) {
	m, pairings, sender, _ := newTestMatcher()

	m.Seek("a", "Ann")
	s, ok := m.Seek("b", "Bob")
	require.True(t, ok)

	assert.False(t, m.Waiting("a"))
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 1, pairings.Len())

	require.Len(t, sender.sent["a"], 1)
	require.Len(t, sender.sent["b"], 1)
	toA := decode[models.PartnerFound](t, sender.sent["a"][0])
	toB := decode[models.PartnerFound](t, sender.sent["b"][0])
	assert.Equal(t, models.PartnerFound{SessionID: s.SessionID, PartnerDisplayName: "Bob"}, toA)
	assert.Equal(t, models.PartnerFound{SessionID: s.SessionID, PartnerDisplayName: "Ann"}, toB)
}

func TestMatcher_StrictFIFO(t *testing.T) {
	m, pairings, _, _ := newTestMatcher()

	m.Seek("a", "Ann")
	m.Seek("b", "Bob")
	m.Seek("c", "Cid")
	m.Seek("d", "Dee")
	m.Seek("e", "Eve")

	sa, ok := pairings.SessionOf("a")
	require.True(t, ok)
	assert.Equal(t, "b", sa.ParticipantB.ConnID)

	sc, ok := pairings.SessionOf("c")
	require.True(t, ok)
	assert.Equal(t, "d", sc.ParticipantB.ConnID)

	assert.True(t, m.Waiting("e"))
}

func TestMatcher_CancelKeepsOrder(t *testing.T) {
	m, pairings, _, _ := newTestMatcher()

	m.Seek("a", "Ann")
	assert.True(t, m.Cancel("a"))
	assert.False(t, m.Cancel("a"))

	m.Seek("b", "Bob")
	m.Seek("c", "Cid")
	s, ok := pairings.SessionOf("c")
	require.True(t, ok)
	assert.Equal(t, "b", s.ParticipantA.ConnID)
	_, ok = pairings.SessionOf("a")
	assert.False(t, ok)
}

func TestMatcher_SeekWhileWaitingIsNoop(t *testing.T) {
	m, pairings, sender, _ := newTestMatcher()

	m.Seek("a", "Ann")
	_, ok := m.Seek("a", "Ann")

	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, pairings.Len())
	assert.Empty(t, sender.sent["a"])
}

func TestMatcher_SeekWhilePairedIsIgnored(t *testing.T) {
	m, pairings, _, _ := newTestMatcher()

	m.Seek("a", "Ann")
	m.Seek("b", "Bob")
	_, ok := m.Seek("a", "Ann")

	assert.False(t, ok)
	assert.False(t, m.Waiting("a"))
	assert.Equal(t, 1, pairings.Len())
}
