package clock

import "time"

// Clock lets callers substitute time.Now() in tests.
type Clock interface {
	Now() time.Time
}

// RealClock wraps time.Now()
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}
