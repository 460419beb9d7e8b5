package metrics

import coremetrics "github.com/changared/dispatch/core/metrics"

// MultiSink fans assignment events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignments forwards the events to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordAssignments(events []coremetrics.AssignmentEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignments(events); err != nil {
			return err
		}
	}
	return nil
}
