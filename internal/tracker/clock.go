package tracker

import "time"

// Clock abstracts time so the pipeline and day-rollover logic stay
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
