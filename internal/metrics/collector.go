// Package metrics holds scalar run metrics and the Prometheus collector
// that exposes live propagation telemetry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// Collector records propagation progress. It satisfies the propagator's
// observer interface.
type Collector struct {
	registry *prometheus.Registry

	steps         prometheus.Counter
	stepDuration  prometheus.Histogram
	simulatedTime prometheus.Gauge
	runs          *prometheus.CounterVec
	evaluations   prometheus.Counter
}

func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "orbsim"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.steps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "propagation",
		Name:      "steps_total",
		Help:      "Number of saved integration epochs.",
	})
	c.stepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "propagation",
		Name:      "step_duration_seconds",
		Help:      "Wall time of one integration step including re-evaluation.",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
	})
	c.simulatedTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "propagation",
		Name:      "simulated_time_seconds",
		Help:      "Epoch of the last saved state, seconds past J2000.",
	})
	c.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "propagation",
		Name:      "runs_total",
		Help:      "Finished propagations by outcome.",
	}, []string{"outcome"})
	c.evaluations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "propagation",
		Name:      "evaluations_total",
		Help:      "Acceleration model evaluations.",
	})

	c.registry.MustRegister(c.steps, c.stepDuration, c.simulatedTime, c.runs, c.evaluations)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) OnStep(_ int, t float64, _ dynamo.State, elapsed time.Duration) {
	c.steps.Inc()
	c.stepDuration.Observe(elapsed.Seconds())
	c.simulatedTime.Set(t)
}

// RecordRun counts a finished propagation. err is nil on success.
func (c *Collector) RecordRun(evaluations int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.runs.WithLabelValues(outcome).Inc()
	c.evaluations.Add(float64(evaluations))
}
