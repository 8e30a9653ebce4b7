package measure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMeasure keeps the figures in memory like DefaultMeasure and exports them as Prometheus
// metrics labelled by step.
type PrometheusMeasure struct {
	*DefaultMeasure

	items             *prometheus.CounterVec
	stepDuration      *prometheus.HistogramVec
	transportDuration *prometheus.HistogramVec
	totalDuration     *prometheus.GaugeVec
}

// NewPrometheusMeasure registers the pipeline metrics on reg. It panics if they are already registered.
func NewPrometheusMeasure(reg prometheus.Registerer, namespace string) *PrometheusMeasure {
	factory := promauto.With(reg)

	return &PrometheusMeasure{
		DefaultMeasure: NewDefaultMeasure(),
		items: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_step_items_total",
				Help:      "Total number of items processed by a step",
			},
			[]string{"step"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_step_duration_seconds",
				Help:      "Time spent processing one item in seconds",
				Buckets:   []float64{.00001, .0001, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"step"},
		),
		transportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_transport_duration_seconds",
				Help:      "Time one item took to reach a step from its input in seconds",
				Buckets:   []float64{.00001, .0001, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"step", "input"},
		),
		totalDuration: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_step_end_seconds",
				Help:      "Time from the pipeline creation to the end of a step in seconds",
			},
			[]string{"step"},
		),
	}
}

func (m *PrometheusMeasure) AddMetric(name string, concurrent int) Metric {
	mt := &prometheusMetric{
		Metric:  m.DefaultMeasure.AddMetric(name, concurrent),
		step:    name,
		measure: m,
	}

	m.DefaultMeasure.mu.Lock()
	defer m.DefaultMeasure.mu.Unlock()
	m.Steps[name] = mt

	return mt
}

type prometheusMetric struct {
	Metric
	step    string
	measure *PrometheusMeasure
}

func (mt *prometheusMetric) AddDuration(elapsed time.Duration) {
	mt.Metric.AddDuration(elapsed)
	mt.measure.items.WithLabelValues(mt.step).Inc()
	mt.measure.stepDuration.WithLabelValues(mt.step).Observe(elapsed.Seconds())
}

func (mt *prometheusMetric) AddTransportDuration(inputStepName string, elapsed time.Duration) {
	mt.Metric.AddTransportDuration(inputStepName, elapsed)
	mt.measure.transportDuration.WithLabelValues(mt.step, inputStepName).Observe(elapsed.Seconds())
}

func (mt *prometheusMetric) SetTotalDuration(endDuration time.Duration) {
	mt.Metric.SetTotalDuration(endDuration)
	mt.measure.totalDuration.WithLabelValues(mt.step).Set(endDuration.Seconds())
}

var _ Measure = (*PrometheusMeasure)(nil)
