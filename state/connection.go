package state

import (
	"sync/atomic"
	"time"
)

// ConnectionMonitor tracks the last-feedback timestamp so the supervisor
// and daemon can answer "is the bus still alive" without touching the
// snapshot store itself.
type ConnectionMonitor struct {
	lastFeedbackUs atomic.Int64
}

// Touch records that a feedback frame was just processed.
func (c *ConnectionMonitor) Touch(now time.Time) {
	c.lastFeedbackUs.Store(now.UnixMicro())
}

// CheckConnection reports true iff the last-feedback age is under window.
// It returns false if Touch has never been called.
func (c *ConnectionMonitor) CheckConnection(now time.Time, window time.Duration) bool {
	last := c.lastFeedbackUs.Load()
	if last == 0 {
		return false
	}
	age := now.Sub(time.UnixMicro(last))
	return age < window
}

// LastFeedbackAge returns the time since the last Touch, or -1 if Touch
// has never been called.
func (c *ConnectionMonitor) LastFeedbackAge(now time.Time) time.Duration {
	last := c.lastFeedbackUs.Load()
	if last == 0 {
		return -1
	}
	return now.Sub(time.UnixMicro(last))
}
