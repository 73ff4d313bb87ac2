package tm

import (
	"time"

	"go.uber.org/atomic"
)

// ManualClock is used in tests to mock time
type ManualClock struct {
	time atomic.Int64
}

var _ Clock = &ManualClock{}

// Now returns the manually set time
func (c *ManualClock) Now() int64 {
	return c.time.Load()
}

// SetTime sets the time of the ManualClock
func (c *ManualClock) SetTime(t int64) {
	c.time.Store(t)
}

// AdvanceTime progresses time by the given duration
func (c *ManualClock) AdvanceTime(d time.Duration) {
	c.time.Add(int64(d))
}

// NewManualClock returns an instance of ManualClock starting at the epoch
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// NewManualClockAt returns an instance of ManualClock starting at t
func NewManualClockAt(t time.Time) *ManualClock {
	c := &ManualClock{}
	c.SetTime(t.UnixNano())
	return c
}
