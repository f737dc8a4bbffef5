package insight

import "time"

// Clock abstracts wall-clock reads so tests can pin time.
type Clock interface {
	Now() time.Time
}

// CancelFunc cancels a scheduled task. Calling it after the task has fired
// is a no-op.
type CancelFunc func()

// Scheduler schedules one-shot deferred tasks. The production implementation
// wraps time.AfterFunc; tests substitute a manual scheduler that fires tasks
// on demand instead of waiting out real delays.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) CancelFunc
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// NewScheduler returns a scheduler backed by time.AfterFunc.
func NewScheduler() Scheduler { return realScheduler{} }
