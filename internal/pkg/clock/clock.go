// Package clock abstracts the time source so expiry and cooldown logic can be
// driven by a fixed time in tests.
package clock

import "time"

// Clocker is the time source used by anything that reasons about expiry.
type Clocker interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// New returns the production clock backed by time.Now.
func New() *SystemClock {
	return &SystemClock{}
}

// Now returns the current system time.
func (*SystemClock) Now() time.Time {
	return time.Now()
}

// Fixed is a Clocker pinned to a settable instant, for tests.
type Fixed struct {
	At time.Time
}

// Now returns the pinned instant.
func (f *Fixed) Now() time.Time {
	return f.At
}

// Advance moves the pinned instant forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.At = f.At.Add(d)
}
