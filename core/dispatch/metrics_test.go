package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsRegistration(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	reg := prometheus.NewRegistry()
	MustRegisterMetrics(reg)
	// touch metrics so they are exported
	requestsCreated.WithLabelValues("electricista").Inc()
	reassignments.Inc()
	cancellations.WithLabelValues("sin_profesionales").Inc()
	completions.Inc()
	notifyFailure.Inc()
	activeRequests.Set(1)
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[*mf.Name] = true
	}
	expected := []string{
		"requests_created_total",
		"reassignments_total",
		"cancellations_total",
		"completions_total",
		"offer_notify_failure_total",
		"active_requests",
	}
	for _, n := range expected {
		if !names[n] {
			t.Errorf("metric %s not registered", n)
		}
	}
}
