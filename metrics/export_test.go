package metrics

import "time"

// SetClock replaces the clock used by timers started from h.
func SetClock(h *Histogram, now func() time.Time) {
	h.now = now
}
