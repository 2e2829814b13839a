package engine

import "time"

// Clock supplies wall-clock timestamps for session records. Ordering of
// steps never depends on it; steps are ordered by index.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
