package metrics

import (
	coremetrics "github.com/changared/dispatch/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records assignment outcomes in Prometheus metrics.
type PromSink struct {
	outcomes *prometheus.CounterVec
	distance *prometheus.HistogramVec
	revenue  prometheus.Counter
}

// NewPromSink registers assignment metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignment_events_total",
		Help: "Total number of assignment events",
	}, []string{"service_type", "urgency", "outcome"})
	distance := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assignment_distance_km",
		Help:    "Distance between client and assigned professional",
		Buckets: []float64{0.5, 1, 2, 3, 5, 10, 20, 50},
	}, []string{"service_type"})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "completed_revenue_minor_total",
		Help: "Revenue from completed requests, in minor currency units",
	})

	if err := reg.Register(outcomes); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			outcomes = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(distance); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			distance = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(revenue); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			revenue = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}

	return &PromSink{outcomes: outcomes, distance: distance, revenue: revenue}, nil
}

// RecordAssignments increments the counters for each recorded event.
func (s *PromSink) RecordAssignments(events []coremetrics.AssignmentEvent) error {
	for _, ev := range events {
		s.outcomes.WithLabelValues(string(ev.Service), string(ev.Urgency), ev.Outcome).Inc()
		switch ev.Outcome {
		case coremetrics.OutcomeAssigned, coremetrics.OutcomeReassigned:
			s.distance.WithLabelValues(string(ev.Service)).Observe(ev.DistanceKm)
		case coremetrics.OutcomeCompleted:
			s.revenue.Add(float64(ev.Total))
		}
	}
	return nil
}
