// Package clock abstracts the time source used to time activations.
package clock

import "time"

// Clock provides an abstraction for time operations to enable deterministic testing.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system time.
type RealClock struct{}

// Now returns the current system time.
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// FakeClock returns a scripted time for testing. Every call to Now returns
// the current time and then moves it forward by step.
type FakeClock struct {
	current time.Time
	step    time.Duration
}

// NewFakeClock creates a FakeClock starting at t. A zero step freezes time.
func NewFakeClock(t time.Time, step time.Duration) *FakeClock {
	return &FakeClock{current: t, step: step}
}

// Now returns the current fake time and advances it by one step.
func (c *FakeClock) Now() time.Time {
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}
