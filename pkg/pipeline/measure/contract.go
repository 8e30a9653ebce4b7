package measure

import "time"

// Measure keeps a Metric per step.
type Measure interface {
	AddMetric(name string, concurrent int) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

// Metric records the durations of a single step.
type Metric interface {
	// AddDuration records the computation time of one item.
	AddDuration(elapsed time.Duration)
	// AddTransportDuration records the time one item took to come from the input step.
	AddTransportDuration(inputStepName string, elapsed time.Duration)
	AVGDuration() time.Duration
	AVGTransportDuration() map[string]*TransportInfo
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
	AllTransports() map[string]*TransportInfo
	Total() int64
}
