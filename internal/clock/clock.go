// Package clock drives one avatar backend through a continuous
// update-then-render cycle. The host's per-frame callback calls Frame; the
// clock itself never blocks, sleeps or spawns goroutines.
package clock

import (
	"time"

	"chosenoffset.com/avatarstage/internal/metrics"
)

// Target is ticked once per frame.
type Target interface {
	Update(dt float64)
	Render()
}

// Clock drives a single Target.
type Clock struct {
	target  Target
	now     func() time.Time
	label   string
	last    time.Time
	started bool
	stopped bool
	frames  uint64
}

// Option configures a Clock.
type Option func(*Clock)

// WithNow replaces the time source.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) {
		c.now = now
	}
}

// WithLabel names the backend in frame metrics.
func WithLabel(label string) Option {
	return func(c *Clock) {
		c.label = label
	}
}

// New creates a clock for target.
func New(target Target, opts ...Option) *Clock {
	c := &Clock{target: target, now: time.Now, label: "unknown"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Frame runs one iteration: elapsed seconds since the previous iteration
// (0 on the first) are passed to Update, then Render is called. It reports
// false once the clock has been destroyed.
func (c *Clock) Frame() bool {
	if c.stopped {
		return false
	}

	now := c.now()
	var dt float64
	if c.started {
		dt = now.Sub(c.last).Seconds()
		if dt < 0 {
			dt = 0
		}
	}
	c.last = now
	c.started = true

	c.target.Update(dt)
	c.target.Render()
	c.frames++
	metrics.Frames.WithLabelValues(c.label).Inc()
	return true
}

// Frames returns the number of completed iterations.
func (c *Clock) Frames() uint64 {
	return c.frames
}

// Stopped reports whether Destroy has been called.
func (c *Clock) Stopped() bool {
	return c.stopped
}

// Destroy stops further iterations. Calling it again has no effect.
func (c *Clock) Destroy() {
	c.stopped = true
}
