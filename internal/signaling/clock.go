package signaling

import "time"

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer before it fired.
	Stop() bool
}

// Scheduler provides time and deferred callbacks so that call timeouts can be
// driven deterministically in tests.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler is backed by the time package.
type RealScheduler struct{}

// Now implements Scheduler.
func (RealScheduler) Now() time.Time { return time.Now() }

// AfterFunc implements Scheduler.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
