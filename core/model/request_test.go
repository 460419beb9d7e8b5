package model

import "testing"

func TestPriceBreakdownConsistent(t *testing.T) {
	b := PriceBreakdown{BaseRate: 15000, Total: 20800, Commission: 4160, Payout: 16640}
	if !b.Consistent() {
		t.Fatalf("expected consistent breakdown: %+v", b)
	}
	b.Commission++
	if b.Consistent() {
		t.Fatalf("expected inconsistent breakdown after skew")
	}
	b = PriceBreakdown{Total: -1, Payout: -1}
	if b.Consistent() {
		t.Fatalf("negative amounts must not be consistent")
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateCreated, StatePendingConfirmation, StateConfirmed, StateInProgress} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []State{StateCompleted, StateCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestRequestClone(t *testing.T) {
	r := &ServiceRequest{ID: "s1", RejectedIDs: []string{"p1"}}
	cp := r.Clone()
	cp.RejectedIDs = append(cp.RejectedIDs, "p2")
	if len(r.RejectedIDs) != 1 {
		t.Fatalf("clone aliases rejected list")
	}
	if !r.Rejected("p1") || r.Rejected("p2") {
		t.Fatalf("rejected lookup wrong")
	}
}
