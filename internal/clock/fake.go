package clock

import "time"

// Frozen is a Clock pinned to one instant, for tests that assert on
// generated timestamps. It is not safe for concurrent use.
type Frozen struct {
	now time.Time
}

// NewFrozen pins the clock at t, normalized to UTC.
func NewFrozen(t time.Time) *Frozen {
	return &Frozen{now: t.UTC()}
}

func (c *Frozen) Now() time.Time {
	return c.now
}

// Advance moves the pinned instant forward by d.
func (c *Frozen) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
