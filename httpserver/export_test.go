package httpserver

import (
	"net/http"
	"time"
)

// SetStoreClock replaces the clock of s.
func SetStoreClock(s *MemoryStore, now func() time.Time) {
	s.now = now
}

// WindowCount returns the number of tracked windows in s.
func WindowCount(s *MemoryStore) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Observation exposes the per-request observation to tests.
type Observation struct {
	obs *requestObservation
}

// StartObservation starts observing r as Instrument would.
func StartObservation(cfg InstrumentConfig, r *http.Request) *Observation {
	c := cfg.withDefaults()
	return &Observation{obs: startObservation(&c, r)}
}

// Finish signals request completion with status and body size.
func (o *Observation) Finish(status, bytes int) {
	o.obs.finish(status, bytes)
}
