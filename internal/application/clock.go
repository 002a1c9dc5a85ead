package application

import (
	"sync"
	"time"
)

// Clock stamps workflow transitions.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now, in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// StepClock advances by Step (one second when zero) on every call, so
// consecutive transitions always get distinct, ordered timestamps.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

func NewStepClock(start time.Time) *StepClock {
	return &StepClock{now: start}
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	step := c.Step
	if step == 0 {
		step = time.Second
	}
	c.now = c.now.Add(step)
	return c.now
}
