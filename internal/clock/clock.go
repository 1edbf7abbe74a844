package clock

import "time"

// Clock supplies the current time. Every time-dependent decision (expiry,
// timeout stamping) goes through an injected Clock so tests can pin it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// System returns a Clock backed by the wall clock.
func System() Clock {
	return systemClock{}
}
