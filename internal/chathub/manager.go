package chathub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boting/backend/internal/config"
	"boting/backend/internal/models"
)

// ErrManagerStopped is returned by calls made after the event loop exited.
var ErrManagerStopped = errors.New("manager stopped")

// Options tune a ManagerService.
type Options struct {
	// SessionTTL bounds every random chat session. Zero means the default.
	SessionTTL time.Duration
	// Scheduler arms session expiry timers. Nil means the runtime clock.
	Scheduler Scheduler
	// Sink observes room and session lifecycle transitions. May be nil.
	Sink LifecycleSink
}

// ManagerService is the hub: it owns every piece of relay state and mutates
// it from a single goroutine. Transports and timers talk to it only through
// its channels.
type ManagerService struct {
	Clients map[string]Client

	// Channels
	RegisterCh   chan Client
	UnregisterCh chan Client
	IncomingCh   chan models.IncomingEvent
	expireCh     chan string
	statsCh      chan chan models.Stats
	done         chan struct{}

	Registry *Registry
	Rooms    *RoomDirectory
	Relay    *Relay
	Matcher  *MatcherService
	Pairings *PairingTable
}

// NewManagerService wires the relay state machine.
func NewManagerService(opts Options) *ManagerService {
	m := &ManagerService{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		IncomingCh:   make(chan models.IncomingEvent, config.IncomingBuffer),
		expireCh:     make(chan string, config.ExpiryBuffer),
		statsCh:      make(chan chan models.Stats),
		done:         make(chan struct{}),
		Registry:     NewRegistry(),
	}
	m.Rooms = NewRoomDirectory(opts.Sink)
	m.Relay = NewRelay(m.Rooms, m)
	m.Pairings = NewPairingTable(opts.SessionTTL, opts.Scheduler, m, m.postExpiry, opts.Sink)
	m.Matcher = NewMatcherService(m.Pairings, m)
	return m
}

// Run processes events until ctx is cancelled. Every event is handled to
// completion before the next one is taken.
func (m *ManagerService) Run(ctx context.Context) {
	log := logger("chathub")
	log.Info().Msg("Manager Service started.")
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			log.Info().Msg("Manager Service stopped.")
			return

		case client := <-m.RegisterCh:
			m.guard("register", func() { m.handleRegister(client) })

		case client := <-m.UnregisterCh:
			m.guard("unregister", func() { m.disconnect(client.GetConnID()) })

		case evt := <-m.IncomingCh:
			m.guard(evt.Envelope.Event, func() { m.handleIncoming(evt) })

		case sessionID := <-m.expireCh:
			m.guard("expire", func() { m.Pairings.End(sessionID, models.ReasonTimeExpired) })

		case reply := <-m.statsCh:
			reply <- m.stats()
		}
	}
}

// Done is closed once Run has returned.
func (m *ManagerService) Done() <-chan struct{} {
	return m.done
}

// Register hands a new connection to the event loop.
func (m *ManagerService) Register(c Client) error {
	select {
	case m.RegisterCh <- c:
		return nil
	case <-m.done:
		return ErrManagerStopped
	}
}

// Unregister reports a terminated connection.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

// Dispatch queues an inbound frame.
func (m *ManagerService) Dispatch(evt models.IncomingEvent) {
	select {
	case m.IncomingCh <- evt:
	case <-m.done:
	}
}

// Snapshot returns current counters, read on the event loop.
func (m *ManagerService) Snapshot(ctx context.Context) (models.Stats, error) {
	reply := make(chan models.Stats, 1)
	select {
	case m.statsCh <- reply:
	case <-m.done:
		return models.Stats{}, ErrManagerStopped
	case <-ctx.Done():
		return models.Stats{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return models.Stats{}, ctx.Err()
	}
}

// Send implements Sender. It never blocks: a full client buffer drops the frame.
func (m *ManagerService) Send(connID string, env models.Envelope) bool {
	client, ok := m.Clients[connID]
	if !ok {
		return false
	}
	select {
	case client.GetSendChannel() <- env:
		return true
	default:
		logger("chathub").Warn().Str("conn", connID).Str("event", env.Event).Msg("send buffer full, frame dropped")
		return false
	}
}

// postExpiry runs on a timer goroutine.
func (m *ManagerService) postExpiry(sessionID string) {
	select {
	case m.expireCh <- sessionID:
	case <-m.done:
	}
}

func (m *ManagerService) handleRegister(c Client) {
	connID := c.GetConnID()
	if _, exists := m.Clients[connID]; exists {
		logger("chathub").Warn().Str("conn", connID).Msg("duplicate connection id, ignoring")
		return
	}
	m.Clients[connID] = c
	m.Registry.Touch(connID)
	deliver(m, connID, models.EventUserID, c.GetUserID())
	logger("chathub").Info().Str("conn", connID).Str("anon_id", c.GetUserID()).Int("clients", len(m.Clients)).Msg("client connected")
}

// disconnect tears down everything a connection holds. It runs at most once
// per connection: later calls find no client and return.
func (m *ManagerService) disconnect(connID string) {
	client, ok := m.Clients[connID]
	if !ok {
		return
	}
	delete(m.Clients, connID)
	client.Close()

	if roomID, ok := m.Registry.RoomOf(connID); ok {
		m.leaveRoom(connID, roomID)
	}
	m.Matcher.Cancel(connID)
	if s, ok := m.Pairings.SessionOf(connID); ok {
		m.Pairings.End(s.SessionID, models.ReasonUserDisconnected)
	}
	m.Registry.Remove(connID)

	logger("chathub").Info().Str("conn", connID).Int("clients", len(m.Clients)).Msg("client disconnected")
}

func (m *ManagerService) leaveRoom(connID, roomID string) bool {
	if !m.Rooms.IsMember(roomID, connID) {
		return false
	}
	m.Rooms.RemoveMember(roomID, connID)
	if current, ok := m.Registry.RoomOf(connID); ok && current == roomID {
		m.Registry.SetRoom(connID, "")
	}
	return true
}

func (m *ManagerService) stats() models.Stats {
	return models.Stats{
		Connections: len(m.Clients),
		Rooms:       m.Rooms.Len(),
		Waiting:     m.Matcher.Len(),
		Sessions:    m.Pairings.Len(),
	}
}

func (m *ManagerService) shutdown() {
	m.Pairings.StopAll()
	for connID, c := range m.Clients {
		c.Close()
		delete(m.Clients, connID)
	}
}

// guard contains a panicking handler so one bad event cannot stop the loop.
func (m *ManagerService) guard(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger("chathub").Error().Str("event", name).Err(fmt.Errorf("%v", r)).Msg("handler panicked")
		}
	}()
	fn()
}
