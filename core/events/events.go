package events

import (
	"time"

	"github.com/changared/dispatch/core/model"
)

// CreatedEvent is published when a request enters pendiente_confirmacion for
// the first time.
type CreatedEvent struct {
	RequestID      string
	Service        model.ServiceType
	ProfessionalID string
	DistanceKm     float64
	Total          int64
}

// DecisionEvent is published for each accept or reject by the assigned
// professional. Action is "accept" or "reject".
type DecisionEvent struct {
	RequestID      string
	ProfessionalID string
	Action         string
	Reason         string
}

// ReassignedEvent is published when a rejection moved the request to the next
// candidate.
type ReassignedEvent struct {
	RequestID  string
	FromID     string
	ToID       string
	DistanceKm float64
	Attempt    int
}

// CancelledEvent is published when a request reaches cancelado.
type CancelledEvent struct {
	RequestID string
	Reason    string
}

// CompletedEvent is published when a request reaches completado and the
// professional's earnings were recorded.
type CompletedEvent struct {
	RequestID      string
	ProfessionalID string
	Payout         int64
	CompletedAt    time.Time
}

// PaidEvent is published when the external payment collaborator confirmed the
// payment.
type PaidEvent struct {
	RequestID string
	Total     int64
}
