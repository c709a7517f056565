// sprint/clock.go
package sprint

import "time"

// Clock abstracts wall-clock reads so tests can drive the countdown
// deterministically. All elapsed/remaining math derives from Now() minus the
// session start timestamp, never from an incrementing counter.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }
