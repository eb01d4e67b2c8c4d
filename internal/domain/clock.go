package domain

import "time"

// Clock abstracts wall-clock reads. The current-month sales volume
// depends on when the portfolio is evaluated, so every consumer takes a
// Clock instead of calling time.Now directly.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
