package dispatch

import (
	"fmt"
	"time"

	"github.com/changared/dispatch/core/errs"
	"github.com/changared/dispatch/core/model"
)

// transitions is the legal state graph of a service request. Cancellation
// from non-terminal states is handled separately since any of them may move
// to cancelado.
var transitions = map[model.State][]model.State{
	model.StateCreated:             {model.StatePendingConfirmation},
	model.StatePendingConfirmation: {model.StatePendingConfirmation, model.StateConfirmed},
	model.StateConfirmed:           {model.StateInProgress},
	model.StateInProgress:          {model.StateCompleted},
}

// CanTransition reports whether from may legally move to to.
func CanTransition(from, to model.State) bool {
	if from.Terminal() {
		return false
	}
	if to == model.StateCancelled {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies the state change, stamping the transition time. The
// request is left untouched on error: terminal states reject every further
// transition with ErrAlreadyTerminal, anything else off the graph fails with
// ErrInvalidTransition.
func Transition(req *model.ServiceRequest, to model.State, now time.Time) error {
	if req.State.Terminal() {
		// Re-completing or re-cancelling a finished request is the
		// idempotency case; everything else is a plain illegal move.
		if to == model.StateCompleted || to == model.StateCancelled {
			return fmt.Errorf("request %s is %s: %w", req.ID, req.State, errs.ErrAlreadyTerminal)
		}
		return fmt.Errorf("request %s: %s -> %s: %w", req.ID, req.State, to, errs.ErrInvalidTransition)
	}
	if !CanTransition(req.State, to) {
		return fmt.Errorf("request %s: %s -> %s: %w", req.ID, req.State, to, errs.ErrInvalidTransition)
	}
	req.State = to
	req.UpdatedAt = now
	return nil
}

// RecordRejection appends the professional to the rejected list and clears the
// assignment. The list only ever grows and never holds duplicates; the
// assigned professional is by invariant never already in it.
func RecordRejection(req *model.ServiceRequest, professionalID string) error {
	if req.ProfessionalID != professionalID {
		return fmt.Errorf("request %s is assigned to %s: %w", req.ID, req.ProfessionalID, errs.ErrNotAssignedProfessional)
	}
	if req.Rejected(professionalID) {
		return fmt.Errorf("professional %s already rejected request %s: %w", professionalID, req.ID, errs.ErrInvalidTransition)
	}
	req.RejectedIDs = append(req.RejectedIDs, professionalID)
	req.ProfessionalID = ""
	return nil
}

// Assign sets the active professional, its distance and the freshly quoted
// price. The professional must not have rejected this request before.
func Assign(req *model.ServiceRequest, c Candidate, price model.PriceBreakdown, now time.Time) error {
	if req.Rejected(c.ProfessionalID) {
		return fmt.Errorf("professional %s already rejected request %s: %w", c.ProfessionalID, req.ID, errs.ErrInvalidTransition)
	}
	if err := Transition(req, model.StatePendingConfirmation, now); err != nil {
		return err
	}
	req.ProfessionalID = c.ProfessionalID
	req.DistanceKm = c.DistanceKm
	req.Price = price
	return nil
}
