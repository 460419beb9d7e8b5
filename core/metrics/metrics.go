// Package metrics defines the sink interfaces used to record dispatch
// outcomes. Implementations live under infra/metrics.
package metrics

import (
	"time"

	"github.com/changared/dispatch/core/model"
)

// Outcome labels a recorded assignment event.
const (
	OutcomeAssigned   = "assigned"
	OutcomeReassigned = "reassigned"
	OutcomeAccepted   = "accepted"
	OutcomeRejected   = "rejected"
	OutcomeCancelled  = "cancelled"
	OutcomeCompleted  = "completed"
	OutcomePaid       = "paid"
)

// AssignmentEvent represents one per-request dispatch outcome to be recorded.
type AssignmentEvent struct {
	RequestID      string
	ProfessionalID string
	Service        model.ServiceType
	Urgency        model.Urgency
	Outcome        string
	DistanceKm     float64
	Total          int64
	Payout         int64
	Commission     int64
	Time           time.Time
}

// MetricsSink records assignment events for observability purposes.
type MetricsSink interface {
	RecordAssignments(events []AssignmentEvent) error
}

// NopSink discards every event.
type NopSink struct{}

// RecordAssignments implements MetricsSink.
func (NopSink) RecordAssignments([]AssignmentEvent) error { return nil }
