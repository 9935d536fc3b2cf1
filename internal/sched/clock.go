// internal/sched/clock.go

package sched

import "time"

// Clock is a monotonic time source. Now returns seconds since an arbitrary
// epoch, strictly increasing, not correlated with wall-clock time.
type Clock interface {
	Now() float64
}

// monotonicClock reads Go's monotonic clock relative to its construction time.
type monotonicClock struct {
	base time.Time
}

// NewMonotonicClock returns a Clock backed by the runtime monotonic clock.
func NewMonotonicClock() Clock {
	return &monotonicClock{base: time.Now()}
}

func (c *monotonicClock) Now() float64 {
	return time.Since(c.base).Seconds()
}
