package storage

import (
	"context"
	"sync/atomic"

	"boting/backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Recorder persists lifecycle events off the hub goroutine. Record never
// blocks: when the buffer is full the event is dropped and counted.
type Recorder struct {
	store   Storage
	events  chan models.LifecycleEvent
	dropped atomic.Int64
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store Storage, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{store: store, events: make(chan models.LifecycleEvent, buffer)}
}

// Record queues evt.
func (r *Recorder) Record(evt models.LifecycleEvent) {
	select {
	case r.events <- evt:
	default:
		n := r.dropped.Add(1)
		log.Warn().Str("module", "storage.recorder").Str("kind", evt.Kind).Int64("dropped", n).Msg("lifecycle buffer full, event dropped")
	}
}

// Dropped returns how many events were lost to a full buffer.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Run writes queued events until ctx is cancelled, then flushes what is left.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case evt := <-r.events:
			r.apply(evt)
		case <-ctx.Done():
			for {
				select {
				case evt := <-r.events:
					r.apply(evt)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) apply(evt models.LifecycleEvent) {
	var err error
	switch evt.Kind {
	case models.LifecycleRoomCreated:
		err = r.store.SaveRoomAudit(&models.RoomAudit{
			RoomID:      evt.RoomID,
			DisplayName: evt.RoomName,
			JoinLink:    evt.JoinLink,
			IsActive:    true,
			CreatedAt:   evt.At,
		})
	case models.LifecycleRoomDeleted:
		err = r.store.CloseRoomAudit(evt.RoomID, evt.At)
	case models.LifecycleSessionStarted:
		audit := &models.SessionAudit{SessionID: evt.SessionID, IsActive: true, StartedAt: evt.At}
		if len(evt.Connections) == 2 {
			audit.ConnA, audit.ConnB = evt.Connections[0], evt.Connections[1]
		}
		err = r.store.SaveSessionAudit(audit)
	case models.LifecycleSessionEnded:
		err = r.store.CloseSessionAudit(evt.SessionID, evt.Reason, evt.At)
	}
	if err != nil {
		log.Error().Err(err).Str("module", "storage.recorder").Str("kind", evt.Kind).Msg("failed to write audit row")
	}

	if err := r.store.PublishLifecycle(evt); err != nil {
		log.Error().Err(err).Str("module", "storage.recorder").Str("kind", evt.Kind).Msg("failed to publish lifecycle event")
	}
}
