package chathub

import (
	"time"

	"boting/backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LifecycleSink observes room and random session transitions.
// Record is called from the event loop and must not block.
type LifecycleSink interface {
	Record(evt models.LifecycleEvent)
}

// LifecycleFunc adapts a plain function to LifecycleSink.
type LifecycleFunc func(evt models.LifecycleEvent)

func (f LifecycleFunc) Record(evt models.LifecycleEvent) { f(evt) }

func record(sink LifecycleSink, evt models.LifecycleEvent) {
	if sink == nil {
		return
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	sink.Record(evt)
}

func logger(module string) *zerolog.Logger {
	l := log.With().Str("module", module).Logger()
	return &l
}
