package table

import (
	"errors"
	"testing"

	"storefront/admin/internal/domain"
)

func TestWorkflow_SimpleConfirm(t *testing.T) {
	w := NewWorkflow()
	req := NewConfirmationRequest("sizes", domain.OperationDelete, []Target{{ID: "s1"}})

	if err := w.Request(req); err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if w.State() != StateRequested || !w.CanConfirm() {
		t.Fatalf("state = %s, CanConfirm = %v", w.State(), w.CanConfirm())
	}
	if err := w.Decide(DecisionCascade); !errors.Is(err, domain.ErrSubDecisionInvalid) {
		t.Errorf("Decide() without dependents error = %v", err)
	}
	if err := w.Request(req); !errors.Is(err, domain.ErrRequestPending) {
		t.Errorf("second Request() error = %v", err)
	}

	confirmed, err := w.Confirm()
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if confirmed.ID != req.ID || w.State() != StateConfirmed {
		t.Errorf("confirmed %s in state %s", confirmed.ID, w.State())
	}

	w.Finish()
	if w.State() != StateIdle || w.Last() != StateConfirmed {
		t.Errorf("after Finish state = %s, last = %s", w.State(), w.Last())
	}
	if _, ok := w.Pending(); ok {
		t.Error("no request should be pending")
	}
}

func TestWorkflow_SubDecisionGatesConfirm(t *testing.T) {
	w := NewWorkflow()
	req := NewConfirmationRequest("categories", domain.OperationDelete, []Target{
		{ID: "A", Children: []string{"B"}, Descendants: []string{"B"}},
	})
	if err := w.Request(req); err != nil {
		t.Fatal(err)
	}

	if w.State() != StateNeedsSubDecision {
		t.Fatalf("state = %s, want needs_sub_decision", w.State())
	}
	if w.CanConfirm() {
		t.Error("CanConfirm must be false before a sub-decision")
	}
	if _, err := w.Confirm(); !errors.Is(err, domain.ErrSubDecisionRequired) {
		t.Errorf("Confirm() error = %v, want ErrSubDecisionRequired", err)
	}
	if err := w.Decide(DecisionNone); !errors.Is(err, domain.ErrSubDecisionRequired) {
		t.Errorf("Decide(none) error = %v", err)
	}

	if err := w.Decide(DecisionReparent); err != nil {
		t.Fatal(err)
	}
	if err := w.Decide(DecisionCascade); err != nil {
		t.Fatal("decision can change until confirm")
	}

	confirmed, err := w.Confirm()
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if confirmed.Decision != DecisionCascade {
		t.Errorf("Decision = %s, want cascade", confirmed.Decision)
	}
}

func TestWorkflow_Cancel(t *testing.T) {
	w := NewWorkflow()
	if _, err := w.Cancel(); !errors.Is(err, domain.ErrNoPendingRequest) {
		t.Errorf("Cancel() on idle error = %v", err)
	}

	req := NewConfirmationRequest("users", domain.OperationDelete, []Target{{ID: "u1"}})
	if err := w.Request(req); err != nil {
		t.Fatal(err)
	}
	cancelled, err := w.Cancel()
	if err != nil || cancelled.ID != req.ID {
		t.Fatalf("Cancel() = %v, %v", cancelled, err)
	}
	if w.State() != StateIdle || w.Last() != StateCancelled {
		t.Errorf("state = %s, last = %s", w.State(), w.Last())
	}
	if _, err := w.Confirm(); !errors.Is(err, domain.ErrNoPendingRequest) {
		t.Errorf("Confirm() after cancel error = %v", err)
	}
}

func TestWorkflow_RequestWithoutTargets(t *testing.T) {
	w := NewWorkflow()
	err := w.Request(NewConfirmationRequest("users", domain.OperationDelete, nil))
	if !errors.Is(err, domain.ErrNothingSelected) {
		t.Errorf("Request() error = %v", err)
	}
	if w.State() != StateIdle {
		t.Errorf("state = %s", w.State())
	}
}

func TestParseSubDecision(t *testing.T) {
	for _, s := range []string{"cascade", "reparent", ""} {
		d, err := ParseSubDecision(s)
		if err != nil || d.String() != s {
			t.Errorf("ParseSubDecision(%q) = %s, %v", s, d, err)
		}
	}
	if _, err := ParseSubDecision("orphan"); err == nil {
		t.Error("expected error")
	}
}
