package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/changared/dispatch/core/errs"
	"github.com/changared/dispatch/core/model"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to model.State
		want     bool
	}{
		{model.StateCreated, model.StatePendingConfirmation, true},
		{model.StateCreated, model.StateConfirmed, false},
		{model.StatePendingConfirmation, model.StatePendingConfirmation, true},
		{model.StatePendingConfirmation, model.StateConfirmed, true},
		{model.StatePendingConfirmation, model.StateInProgress, false},
		{model.StateConfirmed, model.StateInProgress, true},
		{model.StateConfirmed, model.StateCompleted, false},
		{model.StateInProgress, model.StateCompleted, true},
		{model.StateCreated, model.StateCancelled, true},
		{model.StatePendingConfirmation, model.StateCancelled, true},
		{model.StateConfirmed, model.StateCancelled, true},
		{model.StateInProgress, model.StateCancelled, true},
		{model.StateCompleted, model.StateCancelled, false},
		{model.StateCancelled, model.StatePendingConfirmation, false},
		{model.StateCompleted, model.StateCompleted, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTransition_TerminalErrors(t *testing.T) {
	now := time.Now()
	done := &model.ServiceRequest{ID: "r1", State: model.StateCompleted}
	if err := Transition(done, model.StateCompleted, now); !errors.Is(err, errs.ErrAlreadyTerminal) {
		t.Errorf("re-complete: expected ErrAlreadyTerminal, got %v", err)
	}
	if err := Transition(done, model.StateCancelled, now); !errors.Is(err, errs.ErrAlreadyTerminal) {
		t.Errorf("cancel completed: expected ErrAlreadyTerminal, got %v", err)
	}
	cancelled := &model.ServiceRequest{ID: "r2", State: model.StateCancelled}
	if err := Transition(cancelled, model.StateConfirmed, now); !errors.Is(err, errs.ErrInvalidTransition) {
		t.Errorf("confirm cancelled: expected ErrInvalidTransition, got %v", err)
	}
	if cancelled.State != model.StateCancelled {
		t.Errorf("request mutated on error: %s", cancelled.State)
	}
}

func TestTransition_StampsTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	req := &model.ServiceRequest{ID: "r1", State: model.StateConfirmed}
	if err := Transition(req, model.StateInProgress, now); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if req.State != model.StateInProgress || !req.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestRecordRejection(t *testing.T) {
	req := &model.ServiceRequest{ID: "r1", State: model.StatePendingConfirmation, ProfessionalID: "p1"}
	if err := RecordRejection(req, "p2"); !errors.Is(err, errs.ErrNotAssignedProfessional) {
		t.Fatalf("expected ErrNotAssignedProfessional, got %v", err)
	}
	if err := RecordRejection(req, "p1"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if req.ProfessionalID != "" || len(req.RejectedIDs) != 1 || req.RejectedIDs[0] != "p1" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestAssign_RefusesRejected(t *testing.T) {
	now := time.Now()
	req := &model.ServiceRequest{
		ID:          "r1",
		State:       model.StatePendingConfirmation,
		RejectedIDs: []string{"p1"},
	}
	err := Assign(req, Candidate{ProfessionalID: "p1", DistanceKm: 1}, model.PriceBreakdown{}, now)
	if !errors.Is(err, errs.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	price := model.PriceBreakdown{BaseRate: 15000, Commission: 3000, Payout: 12000, Total: 15000}
	if err := Assign(req, Candidate{ProfessionalID: "p2", DistanceKm: 2.5}, price, now); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if req.ProfessionalID != "p2" || req.DistanceKm != 2.5 || req.Price.Total != 15000 {
		t.Fatalf("unexpected request %+v", req)
	}
}
