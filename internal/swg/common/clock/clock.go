package clock

import "time"

// Clock abstracts time so latency measurements are testable.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

type RealClock struct{}

func (c RealClock) Now() time.Time { return time.Now() }

func (c RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// MockClock is a manually advanced clock for tests.
type MockClock struct {
	CurrentTime time.Time
}

func (c *MockClock) Now() time.Time { return c.CurrentTime }

func (c *MockClock) Since(t time.Time) time.Duration { return c.CurrentTime.Sub(t) }

func (c *MockClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}
