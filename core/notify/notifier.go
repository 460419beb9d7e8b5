// Package notify defines the port through which the coordinator tells a
// professional about a new assignment. Transports live under infra; the core
// never waits on a professional here, accept and reject arrive later through
// the coordinator's own operations.
package notify

import "github.com/changared/dispatch/core/model"

// Offer is the assignment notification sent to a professional.
type Offer struct {
	RequestID   string            `json:"solicitud_id"`
	Service     model.ServiceType `json:"servicio"`
	Category    model.Category    `json:"categoria_trabajo"`
	Description string            `json:"mensaje_cliente"`
	Urgency     model.Urgency     `json:"urgencia"`
	DistanceKm  float64           `json:"distancia_km"`
	Payout      int64             `json:"pago_profesional"`
}

// Notifier delivers offers to professionals.
type Notifier interface {
	// NotifyOffer sends the offer to the given professional and returns the
	// message identifier used by the transport.
	NotifyOffer(professionalID string, offer Offer) (messageID string, err error)
}
