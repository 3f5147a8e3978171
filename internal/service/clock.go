package service

import "time"

// Clock is a millisecond counter that only moves forward, except when it wraps.
type Clock interface {
	Millis() uint64
}

// MonotonicClock counts milliseconds since it was created.
type MonotonicClock struct {
	start time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

func (c *MonotonicClock) Millis() uint64 {
	return uint64(time.Since(c.start).Milliseconds())
}
