package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter is a monotonically increasing value per label combination.
type Counter struct {
	name string
	vec  *prometheus.CounterVec
}

// Name returns the registered metric name.
func (c *Counter) Name() string {
	return c.name
}

// Inc adds one to the combination identified by labelValues, creating it on
// first use.
//
// NOTE: label cardinality must match the registered label names.
func (c *Counter) Inc(labelValues ...string) {
	c.vec.WithLabelValues(labelValues...).Inc()
}

// Histogram records observations into cumulative buckets plus sum and count
// per label combination.
type Histogram struct {
	name string
	vec  *prometheus.HistogramVec
	now  func() time.Time
}

// Name returns the registered metric name.
func (h *Histogram) Name() string {
	return h.name
}

// Observe records value: every bucket whose upper bound is >= value is
// incremented, and sum and count are updated.
//
// NOTE: label cardinality must match the registered label names.
func (h *Histogram) Observe(value float64, labelValues ...string) {
	h.vec.WithLabelValues(labelValues...).Observe(value)
}

// StartTimer starts timing an operation. The duration is observed in seconds
// under labelValues when the returned Timer is stopped.
func (h *Histogram) StartTimer(labelValues ...string) *Timer {
	return &Timer{
		h:      h,
		labels: append([]string(nil), labelValues...),
		start:  h.now(),
	}
}

// Timer measures one operation and feeds its duration into a Histogram.
type Timer struct {
	h      *Histogram
	labels []string
	start  time.Time
	once   sync.Once
}

// Stop observes the elapsed time. Only the first call records anything; it
// returns the duration and true. Later calls return 0 and false.
func (t *Timer) Stop() (time.Duration, bool) {
	var (
		elapsed time.Duration
		stopped bool
	)
	t.once.Do(func() {
		elapsed = t.h.now().Sub(t.start)
		t.h.Observe(elapsed.Seconds(), t.labels...)
		stopped = true
	})
	return elapsed, stopped
}
