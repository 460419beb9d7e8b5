package model

import (
	"slices"
	"time"
)

// State is the lifecycle state of a service request. Wire values match the
// estado strings the dashboards key off.
type State string

const (
	StateCreated             State = "creada"
	StatePendingConfirmation State = "pendiente_confirmacion"
	StateConfirmed           State = "confirmado"
	StateInProgress          State = "en_proceso"
	StateCompleted           State = "completado"
	StateCancelled           State = "cancelado"
)

// Terminal reports whether no further lifecycle transitions are allowed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Category is the kind of work the client asked for.
type Category string

const (
	CategoryVisit        Category = "visita"
	CategorySimpleRepair Category = "reparacion_simple"
	CategoryMediumRepair Category = "reparacion_media"
	CategoryInstallation Category = "instalacion"
)

// Categories lists every supported work category.
var Categories = []Category{CategoryVisit, CategorySimpleRepair, CategoryMediumRepair, CategoryInstallation}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Urgency is the client-declared urgency of a request.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyUrgent Urgency = "urgente"
)

// Valid reports whether u is a known urgency level.
func (u Urgency) Valid() bool {
	return u == UrgencyNormal || u == UrgencyUrgent
}

// PaymentStatus tracks whether the client has paid.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "no_pagado"
	PaymentPaid   PaymentStatus = "pagado"
)

// PriceBreakdown decomposes the amount charged to the client. All amounts are
// currency minor units. Total is always Payout + Commission.
type PriceBreakdown struct {
	BaseRate          int64 `json:"tarifa_base"`
	DistanceSurcharge int64 `json:"recargo_distancia"`
	UrgencySurcharge  int64 `json:"recargo_urgencia"`
	Commission        int64 `json:"comision_changared"`
	Payout            int64 `json:"pago_profesional"`
	Total             int64 `json:"precio_total"`
}

// Consistent reports whether the total splits exactly into payout plus
// commission and no component is negative.
func (b PriceBreakdown) Consistent() bool {
	if b.Total < 0 || b.Payout < 0 || b.Commission < 0 {
		return false
	}
	return b.Total == b.Payout+b.Commission
}

// ServiceRequest is one client request for a home service. A request holds at
// most one active professional (pending or confirmed) at any time; every
// professional that declined is appended to RejectedIDs and never reselected.
type ServiceRequest struct {
	ID          string      `json:"id"`
	ClientID    string      `json:"cliente_id"`
	Service     ServiceType `json:"servicio"`
	Category    Category    `json:"categoria_trabajo"`
	Description string      `json:"mensaje_cliente"`
	Location
	Urgency        Urgency        `json:"urgencia"`
	State          State          `json:"estado"`
	ProfessionalID string         `json:"profesional_id,omitempty"`
	RejectedIDs    []string       `json:"profesionales_rechazados,omitempty"`
	DistanceKm     float64        `json:"distancia_km"`
	Price          PriceBreakdown `json:"precio"`
	Payment        PaymentStatus  `json:"estado_pago"`
	ResponseMsg    string         `json:"mensaje_respuesta,omitempty"`
	CreatedAt      time.Time      `json:"creado_en"`
	UpdatedAt      time.Time      `json:"actualizado_en"`
	CancelReason   string         `json:"motivo_cancelacion,omitempty"`
}

// Rejected reports whether the professional already declined this request.
func (r *ServiceRequest) Rejected(professionalID string) bool {
	return slices.Contains(r.RejectedIDs, professionalID)
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the record guarded by the coordinator lock.
func (r *ServiceRequest) Clone() *ServiceRequest {
	cp := *r
	cp.RejectedIDs = slices.Clone(r.RejectedIDs)
	return &cp
}
