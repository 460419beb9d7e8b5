// Package dispatch implements the service request dispatch engine: candidate
// selection by proximity, the request lifecycle, and the rejection-triggered
// reassignment cascade.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/changared/dispatch/core/dispatch/journal"
	"github.com/changared/dispatch/core/errs"
	"github.com/changared/dispatch/core/events"
	"github.com/changared/dispatch/core/geo"
	"github.com/changared/dispatch/core/logger"
	"github.com/changared/dispatch/core/metrics"
	"github.com/changared/dispatch/core/model"
	"github.com/changared/dispatch/core/notify"
	"github.com/changared/dispatch/core/pricing"
	"github.com/changared/dispatch/internal/eventbus"
)

// ReasonNoProfessionals is recorded when the candidate pool is exhausted.
const ReasonNoProfessionals = "no hay profesionales disponibles"

// CreateParams are the client inputs for a new service request.
type CreateParams struct {
	ClientID    string
	Service     model.ServiceType
	Category    model.Category
	Location    model.Location
	Urgency     model.Urgency
	Description string
}

// RejectResult reports the outcome of a rejection.
type RejectResult struct {
	Reassigned        bool   `json:"reasignado"`
	NewProfessionalID string `json:"nuevo_profesional,omitempty"`
}

// Totals aggregates marketplace activity for the operator dashboard.
type Totals struct {
	TotalRequests       int   `json:"total_solicitudes"`
	Completed           int   `json:"solicitudes_completadas"`
	Revenue             int64 `json:"total_ingresos"`
	Commissions         int64 `json:"total_comisiones"`
	ActiveProfessionals int   `json:"profesionales_activos"`
}

// entry pairs a request with its lock. Every state-mutating operation on a
// request runs under this lock, so a reject-triggered reassignment and a
// concurrent accept can never both succeed. Different requests proceed fully
// in parallel.
type entry struct {
	mu  sync.Mutex
	req *model.ServiceRequest
}

// Coordinator orchestrates selection, assignment, reassignment and payment
// updates. It is the only entry point used by the API layer.
type Coordinator struct {
	index    *geo.Index
	pricer   *pricing.Engine
	selector *Selector
	notifier notify.Notifier
	sink     metrics.MetricsSink
	bus      eventbus.EventBus
	logger   logger.Logger
	store    journal.Store

	mu       sync.RWMutex
	requests map[string]*entry

	now func() time.Time
}

// NewCoordinator creates a coordinator. sink and bus may be nil.
func NewCoordinator(index *geo.Index, pricer *pricing.Engine, notifier notify.Notifier, sink metrics.MetricsSink, bus eventbus.EventBus, log logger.Logger) (*Coordinator, error) {
	if index == nil || pricer == nil || notifier == nil || log == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewCoordinator")
	}
	return &Coordinator{
		index:    index,
		pricer:   pricer,
		selector: NewSelector(index),
		notifier: notifier,
		sink:     sink,
		bus:      bus,
		logger:   log,
		requests: make(map[string]*entry),
		now:      time.Now,
	}, nil
}

// SetJournal configures the store used to persist dispatch decisions.
func (c *Coordinator) SetJournal(store journal.Store) {
	c.mu.Lock()
	c.store = store
	c.mu.Unlock()
}

// Close releases resources held by the coordinator.
func (c *Coordinator) Close() error {
	if c.bus != nil {
		c.bus.Close()
	}
	c.mu.Lock()
	store := c.store
	c.store = nil
	c.mu.Unlock()
	if store != nil {
		return store.Close()
	}
	return nil
}

// CreateRequest selects the nearest available professional, prices the job
// with that professional's rate and distance, and registers the request in
// pendiente_confirmacion. When no professional qualifies the request is not
// persisted and ErrNoProfessionalsAvailable is returned.
func (c *Coordinator) CreateRequest(p CreateParams) (*model.ServiceRequest, error) {
	if err := validateCreate(p); err != nil {
		return nil, err
	}
	req := &model.ServiceRequest{
		ID:          uuid.NewString(),
		ClientID:    p.ClientID,
		Service:     p.Service,
		Category:    p.Category,
		Description: p.Description,
		Location:    p.Location,
		Urgency:     p.Urgency,
		State:       model.StateCreated,
		Payment:     model.PaymentUnpaid,
		CreatedAt:   c.now(),
		UpdatedAt:   c.now(),
	}

	cand, price, err := c.nextPriced(req)
	if err != nil {
		return nil, err
	}
	if err := Assign(req, cand, price, c.now()); err != nil {
		return nil, err
	}
	prof, _ := c.index.Get(cand.ProfessionalID)
	req.ResponseMsg = responseMessage(prof, req)

	c.mu.Lock()
	c.requests[req.ID] = &entry{req: req}
	c.mu.Unlock()

	requestsCreated.WithLabelValues(string(req.Service)).Inc()
	activeRequests.Inc()
	c.logger.Infof("request %s assigned to %s at %.2f km", req.ID, cand.ProfessionalID, geo.RoundKm(cand.DistanceKm))
	c.sendOffer(req)
	c.journal(journal.Record{
		Timestamp:      c.now(),
		RequestID:      req.ID,
		Event:          journal.EventAssigned,
		State:          req.State,
		Service:        req.Service,
		ProfessionalID: req.ProfessionalID,
		DistanceKm:     req.DistanceKm,
		Total:          req.Price.Total,
	})
	c.record(metrics.OutcomeAssigned, req, req.ProfessionalID)
	if c.bus != nil {
		c.bus.Publish(events.CreatedEvent{
			RequestID:      req.ID,
			Service:        req.Service,
			ProfessionalID: req.ProfessionalID,
			DistanceKm:     req.DistanceKm,
			Total:          req.Price.Total,
		})
	}
	return req.Clone(), nil
}

// Accept confirms the assignment. Only the currently assigned professional
// may accept, and only while the request is pendiente_confirmacion.
func (c *Coordinator) Accept(requestID, professionalID string) (*model.ServiceRequest, error) {
	e, err := c.entry(requestID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	req := e.req
	// State first: the loser of an accept/reject race observes
	// InvalidTransition, not an authorization error.
	if req.State != model.StatePendingConfirmation {
		return nil, fmt.Errorf("request %s is %s: %w", requestID, req.State, errs.ErrInvalidTransition)
	}
	if req.ProfessionalID != professionalID {
		return nil, fmt.Errorf("request %s: %w", requestID, errs.ErrNotAssignedProfessional)
	}
	if err := Transition(req, model.StateConfirmed, c.now()); err != nil {
		return nil, err
	}
	c.logger.Infof("request %s accepted by %s", requestID, professionalID)
	c.journal(journal.Record{
		Timestamp:      c.now(),
		RequestID:      requestID,
		Event:          journal.EventAccepted,
		State:          req.State,
		ProfessionalID: professionalID,
	})
	c.record(metrics.OutcomeAccepted, req, professionalID)
	if c.bus != nil {
		c.bus.Publish(events.DecisionEvent{RequestID: requestID, ProfessionalID: professionalID, Action: "accept"})
	}
	return req.Clone(), nil
}

// Reject runs the reassignment cascade: the professional is recorded as
// rejected, the next candidate (if any) takes over with a freshly quoted
// price, and an exhausted pool cancels the request. The cascade is an
// explicit loop bounded by the roster size.
func (c *Coordinator) Reject(requestID, professionalID, reason string) (RejectResult, error) {
	e, err := c.entry(requestID)
	if err != nil {
		return RejectResult{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	req := e.req
	if req.State != model.StatePendingConfirmation {
		return RejectResult{}, fmt.Errorf("request %s is %s: %w", requestID, req.State, errs.ErrInvalidTransition)
	}
	if err := RecordRejection(req, professionalID); err != nil {
		return RejectResult{}, err
	}
	c.logger.Infof("request %s rejected by %s: %s", requestID, professionalID, reason)
	c.journal(journal.Record{
		Timestamp:      c.now(),
		RequestID:      requestID,
		Event:          journal.EventRejected,
		State:          req.State,
		ProfessionalID: professionalID,
		Reason:         reason,
	})
	c.record(metrics.OutcomeRejected, req, professionalID)
	if c.bus != nil {
		c.bus.Publish(events.DecisionEvent{RequestID: requestID, ProfessionalID: professionalID, Action: "reject", Reason: reason})
	}

	for _, cand := range c.selector.Ranked(req) {
		prof, err := c.index.Get(cand.ProfessionalID)
		if err != nil {
			continue
		}
		price, err := c.pricer.Quote(req.Service, req.Category, cand.DistanceKm, req.Urgency, prof.BaseRate)
		if err != nil {
			c.logger.Warnf("skipping candidate %s: %v", cand.ProfessionalID, err)
			continue
		}
		if err := Assign(req, cand, price, c.now()); err != nil {
			return RejectResult{}, err
		}
		req.ResponseMsg = responseMessage(prof, req)
		reassignments.Inc()
		c.logger.Infof("request %s reassigned %s -> %s", requestID, professionalID, cand.ProfessionalID)
		c.sendOffer(req)
		c.journal(journal.Record{
			Timestamp:      c.now(),
			RequestID:      requestID,
			Event:          journal.EventReassigned,
			State:          req.State,
			ProfessionalID: cand.ProfessionalID,
			DistanceKm:     cand.DistanceKm,
			Total:          price.Total,
		})
		c.record(metrics.OutcomeReassigned, req, cand.ProfessionalID)
		if c.bus != nil {
			c.bus.Publish(events.ReassignedEvent{
				RequestID:  requestID,
				FromID:     professionalID,
				ToID:       cand.ProfessionalID,
				DistanceKm: cand.DistanceKm,
				Attempt:    len(req.RejectedIDs),
			})
		}
		return RejectResult{Reassigned: true, NewProfessionalID: cand.ProfessionalID}, nil
	}

	// Pool exhausted: the failed reassignment is never swallowed, the
	// request lands in cancelado with the reason on record.
	c.cancelLocked(req, ReasonNoProfessionals)
	return RejectResult{}, nil
}

// Start marks that work began. Only the assigned professional may signal it.
func (c *Coordinator) Start(requestID, professionalID string) (*model.ServiceRequest, error) {
	e, err := c.entry(requestID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	req := e.req
	if req.ProfessionalID != professionalID {
		return nil, fmt.Errorf("request %s: %w", requestID, errs.ErrNotAssignedProfessional)
	}
	if err := Transition(req, model.StateInProgress, c.now()); err != nil {
		return nil, err
	}
	c.journal(journal.Record{
		Timestamp:      c.now(),
		RequestID:      requestID,
		Event:          journal.EventStarted,
		State:          req.State,
		ProfessionalID: professionalID,
	})
	return req.Clone(), nil
}

// Complete finishes the request and credits the professional exactly once.
// A second attempt fails with ErrAlreadyTerminal and leaves earnings and
// counters untouched.
func (c *Coordinator) Complete(requestID string) (*model.ServiceRequest, error) {
	e, err := c.entry(requestID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	req := e.req
	if err := Transition(req, model.StateCompleted, c.now()); err != nil {
		return nil, err
	}
	if err := c.index.RecordCompletion(req.ProfessionalID, req.Price.Payout); err != nil {
		c.logger.Errorf("recording earnings for %s: %v", req.ProfessionalID, err)
	}
	completions.Inc()
	activeRequests.Dec()
	c.logger.Infof("request %s completed, payout %d to %s", requestID, req.Price.Payout, req.ProfessionalID)
	c.journal(journal.Record{
		Timestamp:      c.now(),
		RequestID:      requestID,
		Event:          journal.EventCompleted,
		State:          req.State,
		ProfessionalID: req.ProfessionalID,
		Total:          req.Price.Total,
	})
	c.record(metrics.OutcomeCompleted, req, req.ProfessionalID)
	if c.bus != nil {
		c.bus.Publish(events.CompletedEvent{
			RequestID:      requestID,
			ProfessionalID: req.ProfessionalID,
			Payout:         req.Price.Payout,
			CompletedAt:    req.UpdatedAt,
		})
	}
	return req.Clone(), nil
}

// MarkPaid records the external payment confirmation. Re-marking an already
// paid request is a no-op success. Payment on a cancelled, still unpaid
// request is refused.
func (c *Coordinator) MarkPaid(requestID string) (*model.ServiceRequest, error) {
	e, err := c.entry(requestID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	req := e.req
	if req.Payment == model.PaymentPaid {
		return req.Clone(), nil
	}
	if req.State == model.StateCancelled {
		return nil, fmt.Errorf("request %s is cancelled: %w", requestID, errs.ErrInvalidTransition)
	}
	req.Payment = model.PaymentPaid
	req.UpdatedAt = c.now()
	c.logger.Infof("request %s marked paid", requestID)
	c.journal(journal.Record{
		Timestamp: c.now(),
		RequestID: requestID,
		Event:     journal.EventPaid,
		State:     req.State,
		Total:     req.Price.Total,
	})
	c.record(metrics.OutcomePaid, req, req.ProfessionalID)
	if c.bus != nil {
		c.bus.Publish(events.PaidEvent{RequestID: requestID, Total: req.Price.Total})
	}
	return req.Clone(), nil
}

// Cancel cancels the request on behalf of the client or an operator.
func (c *Coordinator) Cancel(requestID, reason string) (*model.ServiceRequest, error) {
	e, err := c.entry(requestID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	req := e.req
	if req.State.Terminal() {
		return nil, fmt.Errorf("request %s is %s: %w", requestID, req.State, errs.ErrAlreadyTerminal)
	}
	c.cancelLocked(req, reason)
	return req.Clone(), nil
}

// Get returns a snapshot of the request.
func (c *Coordinator) Get(requestID string) (*model.ServiceRequest, error) {
	e, err := c.entry(requestID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.req.Clone(), nil
}

// List returns snapshots of every request ordered by creation time.
func (c *Coordinator) List() []*model.ServiceRequest {
	c.mu.RLock()
	entries := make([]*entry, 0, len(c.requests))
	for _, e := range c.requests {
		entries = append(entries, e)
	}
	c.mu.RUnlock()
	out := make([]*model.ServiceRequest, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.req.Clone())
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Metrics aggregates marketplace totals for the operator dashboard.
func (c *Coordinator) Metrics() Totals {
	t := Totals{ActiveProfessionals: c.index.ActiveCount()}
	for _, req := range c.List() {
		t.TotalRequests++
		if req.State == model.StateCompleted {
			t.Completed++
			t.Revenue += req.Price.Total
			t.Commissions += req.Price.Commission
		}
	}
	return t
}

// cancelLocked moves the request to cancelado. Caller holds the entry lock
// and has verified the state is not terminal.
func (c *Coordinator) cancelLocked(req *model.ServiceRequest, reason string) {
	_ = Transition(req, model.StateCancelled, c.now())
	req.CancelReason = reason
	cancellations.WithLabelValues(cancelLabel(reason)).Inc()
	activeRequests.Dec()
	c.logger.Warnf("request %s cancelled: %s", req.ID, reason)
	c.journal(journal.Record{
		Timestamp: c.now(),
		RequestID: req.ID,
		Event:     journal.EventCancelled,
		State:     req.State,
		Reason:    reason,
	})
	c.record(metrics.OutcomeCancelled, req, req.ProfessionalID)
	if c.bus != nil {
		c.bus.Publish(events.CancelledEvent{RequestID: req.ID, Reason: reason})
	}
}

// nextPriced returns the nearest candidate that can be priced. Candidates
// whose rate no longer quotes cleanly are skipped rather than sinking the
// request.
func (c *Coordinator) nextPriced(req *model.ServiceRequest) (Candidate, model.PriceBreakdown, error) {
	var lastErr error
	for _, cand := range c.selector.Ranked(req) {
		prof, err := c.index.Get(cand.ProfessionalID)
		if err != nil {
			continue
		}
		price, err := c.pricer.Quote(req.Service, req.Category, cand.DistanceKm, req.Urgency, prof.BaseRate)
		if err != nil {
			lastErr = err
			continue
		}
		return cand, price, nil
	}
	if lastErr != nil {
		return Candidate{}, model.PriceBreakdown{}, lastErr
	}
	return Candidate{}, model.PriceBreakdown{}, fmt.Errorf("service %s: %w", req.Service, errs.ErrNoProfessionalsAvailable)
}

// sendOffer notifies the assigned professional. Delivery failures are logged
// and counted; the request stays pendiente_confirmacion and the deadline
// scheduler will reject on the professional's behalf if they never respond.
func (c *Coordinator) sendOffer(req *model.ServiceRequest) {
	offer := notify.Offer{
		RequestID:   req.ID,
		Service:     req.Service,
		Category:    req.Category,
		Description: req.Description,
		Urgency:     req.Urgency,
		DistanceKm:  geo.RoundKm(req.DistanceKm),
		Payout:      req.Price.Payout,
	}
	if _, err := c.notifier.NotifyOffer(req.ProfessionalID, offer); err != nil {
		notifyFailure.Inc()
		c.logger.Errorf("offer notification to %s failed: %v", req.ProfessionalID, err)
	}
}

func (c *Coordinator) entry(requestID string) (*entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", requestID, errs.ErrNotFound)
	}
	return e, nil
}

func (c *Coordinator) journal(rec journal.Record) {
	c.mu.RLock()
	store := c.store
	c.mu.RUnlock()
	if store == nil {
		return
	}
	if err := store.Append(context.Background(), rec); err != nil {
		c.logger.Errorf("journal append: %v", err)
	}
}

func (c *Coordinator) record(outcome string, req *model.ServiceRequest, professionalID string) {
	if c.sink == nil {
		return
	}
	ev := metrics.AssignmentEvent{
		RequestID:      req.ID,
		ProfessionalID: professionalID,
		Service:        req.Service,
		Urgency:        req.Urgency,
		Outcome:        outcome,
		DistanceKm:     req.DistanceKm,
		Total:          req.Price.Total,
		Payout:         req.Price.Payout,
		Commission:     req.Price.Commission,
		Time:           c.now(),
	}
	if err := c.sink.RecordAssignments([]metrics.AssignmentEvent{ev}); err != nil {
		c.logger.Errorf("metrics error: %v", err)
	}
}

func validateCreate(p CreateParams) error {
	switch {
	case p.ClientID == "":
		return fmt.Errorf("%w: client id is required", errs.ErrInvalidInput)
	case !p.Service.Valid():
		return fmt.Errorf("%w: unknown service %q", errs.ErrInvalidInput, p.Service)
	case !p.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", errs.ErrInvalidInput, p.Category)
	case !p.Location.Valid():
		return fmt.Errorf("%w: coordinates out of range", errs.ErrInvalidInput)
	case !p.Urgency.Valid():
		return fmt.Errorf("%w: unknown urgency %q", errs.ErrInvalidInput, p.Urgency)
	}
	return nil
}

func cancelLabel(reason string) string {
	if reason == ReasonNoProfessionals {
		return "sin_profesionales"
	}
	return "explicita"
}

func responseMessage(prof model.Professional, req *model.ServiceRequest) string {
	return fmt.Sprintf("¡Encontramos un %s para tu solicitud! %s está a %.2f km y ya fue notificado. Precio total estimado: $%.2f.",
		req.Service, prof.Name, geo.RoundKm(req.DistanceKm), float64(req.Price.Total)/100)
}
