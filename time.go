package identity

import "time"

// IsWithinThresholdPeriod reports whether no more than window has elapsed
// between t and now.
func IsWithinThresholdPeriod(now, t time.Time, window time.Duration) bool {
	return now.Sub(t) <= window
}

// IsOutsideThresholdPeriod is the negation of IsWithinThresholdPeriod:
// strictly more than window has elapsed since t.
func IsOutsideThresholdPeriod(now, t time.Time, window time.Duration) bool {
	return !IsWithinThresholdPeriod(now, t, window)
}
