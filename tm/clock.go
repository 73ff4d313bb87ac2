package tm

import "time"

// Clock is used by the raffle for reading the current time. Round timestamps
// and draw intervals are all measured against a Clock.
type Clock interface {
	// Now returns time in UnixNanos
	Now() int64
}

// Since returns the time elapsed on c since the given UnixNanos timestamp.
func Since(c Clock, ts int64) time.Duration {
	return time.Duration(c.Now() - ts)
}
