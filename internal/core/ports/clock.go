package ports

import "time"

// Clock abstracts the current time so due-date and overdue computations are
// testable with a fixed time source.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
