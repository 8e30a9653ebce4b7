package measure

import (
	"sync"
	"time"
)

// TransportInfo is the time items spent travelling from one input step.
type TransportInfo struct {
	Elapsed time.Duration
	Count   int64
}

// durations accumulates a sum and the number of samples added to it.
type durations struct {
	sum   time.Duration
	count int64
}

func (d *durations) add(elapsed time.Duration) {
	d.sum += elapsed
	d.count++
}

// mean divides the average by workers, as concurrent workers receive items in parallel.
func (d durations) mean(workers int) time.Duration {
	if d.count == 0 {
		return 0
	}

	return round(time.Duration(float64(d.sum) / float64(d.count) / float64(workers)))
}

// DefaultMetric keeps the durations of one step in memory. It is safe for concurrent use.
type DefaultMetric struct {
	mu         sync.Mutex
	workers    int
	compute    durations
	transports map[string]*durations
	end        time.Duration
}

func newDefaultMetric(concurrent int) *DefaultMetric {
	return &DefaultMetric{
		workers:    max(concurrent, 1),
		transports: make(map[string]*durations),
	}
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.compute.add(elapsed)
}

// Total is the number of items the step computed.
func (mt *DefaultMetric) Total() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.compute.count
}

func (mt *DefaultMetric) SetTotalDuration(endDuration time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.end = endDuration
}

// GetTotalDuration is the time between the pipeline creation and the end of the step.
func (mt *DefaultMetric) GetTotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.end
}

func (mt *DefaultMetric) AddTransportDuration(inputStepName string, elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	d, ok := mt.transports[inputStepName]
	if !ok {
		d = &durations{}
		mt.transports[inputStepName] = d
	}

	d.add(elapsed)
}

func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.compute.mean(1)
}

// AVGTransportDuration returns the average transport time per input step, divided by the number of
// workers sharing the input.
func (mt *DefaultMetric) AVGTransportDuration() map[string]*TransportInfo {
	return mt.transportInfos(func(d durations) time.Duration { return d.mean(mt.workers) })
}

// AllTransports returns the accumulated transport time per input step.
func (mt *DefaultMetric) AllTransports() map[string]*TransportInfo {
	return mt.transportInfos(func(d durations) time.Duration { return d.sum })
}

func (mt *DefaultMetric) transportInfos(elapsed func(d durations) time.Duration) map[string]*TransportInfo {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	res := make(map[string]*TransportInfo, len(mt.transports))
	for name, d := range mt.transports {
		res[name] = &TransportInfo{Elapsed: elapsed(*d), Count: d.count}
	}

	return res
}

// round drops the precision that is not readable at the scale of d.
func round(d time.Duration) time.Duration {
	switch {
	case d > time.Hour:
		return d.Round(time.Minute)
	case d > time.Minute:
		return d.Round(time.Second)
	case d > time.Second:
		return d.Round(time.Millisecond)
	case d > time.Millisecond:
		return d.Round(time.Microsecond)
	default:
		return d
	}
}

var _ Metric = (*DefaultMetric)(nil)
