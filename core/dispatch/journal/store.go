// Package journal persists one record per dispatch decision so operators can
// reconstruct why a request ended where it did.
package journal

import (
	"context"
	"time"

	"github.com/changared/dispatch/core/model"
)

// Event names recorded in the journal.
const (
	EventAssigned   = "assigned"
	EventAccepted   = "accepted"
	EventRejected   = "rejected"
	EventReassigned = "reassigned"
	EventStarted    = "started"
	EventCancelled  = "cancelled"
	EventCompleted  = "completed"
	EventPaid       = "paid"
)

// Record captures one lifecycle decision for a request.
type Record struct {
	Timestamp      time.Time         `json:"timestamp"`
	RequestID      string            `json:"request_id"`
	Event          string            `json:"event"`
	State          model.State       `json:"state"`
	Service        model.ServiceType `json:"service,omitempty"`
	ProfessionalID string            `json:"professional_id,omitempty"`
	DistanceKm     float64           `json:"distance_km,omitempty"`
	Total          int64             `json:"total,omitempty"`
	Reason         string            `json:"reason,omitempty"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start     time.Time
	End       time.Time
	RequestID string
	Event     string
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// matches reports whether rec passes every filter in q. Backends that cannot
// push a filter down share this.
func matches(rec Record, q Query) bool {
	if !q.Start.IsZero() && rec.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && rec.Timestamp.After(q.End) {
		return false
	}
	if q.RequestID != "" && rec.RequestID != q.RequestID {
		return false
	}
	if q.Event != "" && rec.Event != q.Event {
		return false
	}
	return true
}
