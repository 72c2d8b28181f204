package metrics

import (
	"fmt"
	"strconv"
	"strings"
)

// DuplicateMetricError is returned when a metric name is registered twice on
// the same Registry.
type DuplicateMetricError struct {
	Name string
}

func (e *DuplicateMetricError) Error() string {
	return fmt.Sprintf("metrics: %q is already registered", e.Name)
}

// InvalidBucketsError is returned when histogram bucket boundaries are empty
// or not strictly increasing.
type InvalidBucketsError struct {
	Name    string
	Buckets []float64
}

func (e *InvalidBucketsError) Error() string {
	parts := make([]string, len(e.Buckets))
	for i, b := range e.Buckets {
		parts[i] = strconv.FormatFloat(b, 'g', -1, 64)
	}
	return fmt.Sprintf(
		"metrics: histogram %q buckets must be non-empty and strictly increasing, got [%s]",
		e.Name, strings.Join(parts, ", "),
	)
}
