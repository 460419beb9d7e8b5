package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsCreated *prometheus.CounterVec
	reassignments   prometheus.Counter
	cancellations   *prometheus.CounterVec
	completions     prometheus.Counter
	notifyFailure   prometheus.Counter
	activeRequests  prometheus.Gauge
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Counter, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter, prometheus.Gauge) {
	created := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_created_total",
			Help: "Number of service requests created and assigned",
		},
		[]string{"service_type"},
	)
	reass := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reassignments_total",
			Help: "Number of rejection-triggered reassignments",
		},
	)
	canc := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cancellations_total",
			Help: "Number of cancelled requests",
		},
		[]string{"reason"},
	)
	comp := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "completions_total",
			Help: "Number of completed requests",
		},
	)
	nfail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offer_notify_failure_total",
			Help: "Number of failed offer notifications",
		},
	)
	active := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_requests",
			Help: "Number of requests not yet in a terminal state",
		},
	)
	return created, reass, canc, comp, nfail, active
}

func init() {
	requestsCreated, reassignments, cancellations, completions, notifyFailure, activeRequests = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(requestsCreated, reassignments, cancellations, completions, notifyFailure, activeRequests)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	requestsCreated, reassignments, cancellations, completions, notifyFailure, activeRequests = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
