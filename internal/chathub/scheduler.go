package chathub

import "time"

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the callback and reports whether it had not fired yet.
	Stop() bool
}

// Scheduler arms timers. Callbacks run on their own goroutine and must not
// touch hub state directly.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler schedules on the runtime clock.
var SystemScheduler Scheduler = systemScheduler{}
