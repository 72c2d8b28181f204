package logging

import "time"

// SetClock overrides the timestamp source of l.
func SetClock(l *Logger, now func() time.Time) {
	l.now = now
}
