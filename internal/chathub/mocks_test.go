package chathub

import (
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"boting/backend/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- fakeClient ---

type fakeClient struct {
	connID string
	userID string
	send   chan models.Envelope
	closed atomic.Bool
}

func newFakeClient(connID string) *fakeClient {
	return &fakeClient{connID: connID, userID: "anon-" + connID, send: make(chan models.Envelope, 64)}
}

func (c *fakeClient) GetConnID() string                      { return c.connID }
func (c *fakeClient) GetUserID() string                      { return c.userID }
func (c *fakeClient) GetSendChannel() chan<- models.Envelope { return c.send }
func (c *fakeClient) Run()                                   {}
func (c *fakeClient) Close()                                 { c.closed.Store(true) }

// drain returns everything queued for the client so far.
func (c *fakeClient) drain() []models.Envelope {
	var out []models.Envelope
	for {
		select {
		case env := <-c.send:
			out = append(out, env)
		default:
			return out
		}
	}
}

func eventNames(envs []models.Envelope) []string {
	names := make([]string, 0, len(envs))
	for _, e := range envs {
		names = append(names, e.Event)
	}
	return names
}

func only(t *testing.T, envs []models.Envelope, event string) []models.Envelope {
	t.Helper()
	var out []models.Envelope
	for _, e := range envs {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func decode[T any](t *testing.T, env models.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), "payload of %s", env.Event)
	return v
}

// --- fake scheduler ---

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (t *fakeTimer) fire() {
	if t.stopped || t.fired {
		return
	}
	t.fired = true
	t.f()
}

type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) last() *fakeTimer {
	return s.timers[len(s.timers)-1]
}

// --- recording sender ---

type recordingSender struct {
	sent        map[string][]models.Envelope
	unreachable map[string]bool
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: make(map[string][]models.Envelope), unreachable: make(map[string]bool)}
}

func (s *recordingSender) Send(connID string, env models.Envelope) bool {
	if s.unreachable[connID] {
		return false
	}
	s.sent[connID] = append(s.sent[connID], env)
	return true
}

// --- MockSink ---

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Record(evt models.LifecycleEvent) {
	m.Called(evt)
}

func kindIs(kind string) any {
	return mock.MatchedBy(func(evt models.LifecycleEvent) bool { return evt.Kind == kind })
}

// --- manager helpers ---

func newTestManager(t *testing.T, sink LifecycleSink) (*ManagerService, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	m := NewManagerService(Options{SessionTTL: 5 * time.Minute, Scheduler: sched, Sink: sink})
	return m, sched
}

func connect(m *ManagerService, connID string) *fakeClient {
	c := newFakeClient(connID)
	m.handleRegister(c)
	c.drain()
	return c
}

func emit(t *testing.T, m *ManagerService, connID, event string, data any) {
	t.Helper()
	env, err := models.NewEnvelope(event, data)
	require.NoError(t, err)
	m.handleIncoming(models.IncomingEvent{ConnID: connID, Envelope: env})
}

func emitRaw(m *ManagerService, connID, event, raw string) {
	env := models.Envelope{Event: event}
	if raw != "" {
		env.Data = json.RawMessage(raw)
	}
	m.handleIncoming(models.IncomingEvent{ConnID: connID, Envelope: env})
}

// processExpired handles expiry events posted by fired timers, as Run would.
func processExpired(m *ManagerService) {
	for {
		select {
		case id := <-m.expireCh:
			m.Pairings.End(id, models.ReasonTimeExpired)
		default:
			return
		}
	}
}
