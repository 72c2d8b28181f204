package metrics

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/common/expfmt"
)

// ContentType is the media type of the text exposition format produced by
// Render and WriteTo.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Registry holds the metrics of one process.
//
// Create one Registry at startup and pass it to the components that record
// metrics. Each test can construct its own Registry, since nothing is
// registered globally.
//
// Example:
//
//	reg := metrics.NewRegistry()
//	requests, err := reg.RegisterCounter("http_requests_total", "Total HTTP requests",
//	    "method", "route", "status")
//	if err != nil {
//	    return err
//	}
//	requests.Inc("GET", "/health", "200")
//
//	text, _ := reg.Render()
type Registry struct {
	reg *prometheus.Registry

	mu    sync.Mutex
	names map[string]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		reg:   prometheus.NewRegistry(),
		names: make(map[string]struct{}),
	}
}

// RegisterCounter creates a counter with the given label names.
//
// Returns *DuplicateMetricError if name is already registered.
func (r *Registry) RegisterCounter(name, help string, labelNames ...string) (*Counter, error) {
	if err := r.claim(name); err != nil {
		return nil, err
	}

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, labelNames)

	if err := r.register(name, vec); err != nil {
		return nil, err
	}
	return &Counter{name: name, vec: vec}, nil
}

// RegisterHistogram creates a histogram with explicit bucket boundaries.
//
// Returns *InvalidBucketsError if buckets is empty, contains NaN, or is not
// strictly increasing, and *DuplicateMetricError if name is already
// registered. The +Inf bucket is always added implicitly.
func (r *Registry) RegisterHistogram(
	name, help string,
	buckets []float64,
	labelNames ...string,
) (*Histogram, error) {
	if !validBuckets(buckets) {
		return nil, &InvalidBucketsError{Name: name, Buckets: append([]float64(nil), buckets...)}
	}
	if err := r.claim(name); err != nil {
		return nil, err
	}

	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    help,
		Buckets: append([]float64(nil), buckets...),
	}, labelNames)

	if err := r.register(name, vec); err != nil {
		return nil, err
	}
	return &Histogram{name: name, vec: vec, now: time.Now}, nil
}

// RegisterProcessMetrics adds the Go runtime and process collectors (memory,
// goroutines, CPU time, open fds, start time) under prefix, e.g.
// "myapp_runtime_" yields "myapp_runtime_go_goroutines".
//
// Call it once at initialization. A second call with the same prefix returns
// *DuplicateMetricError.
func (r *Registry) RegisterProcessMetrics(prefix string) error {
	key := prefix + "*"
	if err := r.claim(key); err != nil {
		return &DuplicateMetricError{Name: prefix}
	}

	wrapped := prometheus.WrapRegistererWithPrefix(prefix, r.reg)
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := wrapped.Register(c); err != nil {
			r.release(key)
			return fmt.Errorf("metrics: register process metrics: %w", err)
		}
	}
	return nil
}

// WriteTo writes a snapshot of every registered metric in the text exposition
// format. Families are sorted by name and samples by label values, so equal
// state always renders identically.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	families, err := r.reg.Gather()
	if err != nil {
		return 0, fmt.Errorf("metrics: gather: %w", err)
	}

	var total int64
	for _, mf := range families {
		n, err := expfmt.MetricFamilyToText(w, mf)
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return total, nil
}

// Render returns the text exposition snapshot as a string.
func (r *Registry) Render() (string, error) {
	var b strings.Builder
	if _, err := r.WriteTo(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Gatherer exposes the underlying registry, e.g. for promhttp or testutil.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) claim(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[name]; ok {
		return &DuplicateMetricError{Name: name}
	}
	r.names[name] = struct{}{}
	return nil
}

func (r *Registry) release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.names, name)
}

func (r *Registry) register(name string, c prometheus.Collector) error {
	if err := r.reg.Register(c); err != nil {
		r.release(name)

		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return &DuplicateMetricError{Name: name}
		}
		return fmt.Errorf("metrics: register %q: %w", name, err)
	}
	return nil
}

func validBuckets(buckets []float64) bool {
	if len(buckets) == 0 {
		return false
	}
	for i, b := range buckets {
		if math.IsNaN(b) {
			return false
		}
		if i > 0 && b <= buckets[i-1] {
			return false
		}
	}
	return true
}
