package table

import (
	"fmt"
	"sync"
	"time"

	"storefront/admin/internal/domain"

	"github.com/google/uuid"
)

type State int

const (
	StateIdle State = iota
	StateRequested
	StateNeedsSubDecision
	StateConfirmed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequested:
		return "requested"
	case StateNeedsSubDecision:
		return "needs_sub_decision"
	case StateConfirmed:
		return "confirmed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SubDecision says what happens to the dependents of a deleted entity
type SubDecision int

const (
	DecisionNone SubDecision = iota
	DecisionCascade
	DecisionReparent
)

func (d SubDecision) String() string {
	switch d {
	case DecisionCascade:
		return "cascade"
	case DecisionReparent:
		return "reparent"
	default:
		return ""
	}
}

func ParseSubDecision(s string) (SubDecision, error) {
	switch s {
	case "cascade":
		return DecisionCascade, nil
	case "reparent":
		return DecisionReparent, nil
	case "":
		return DecisionNone, nil
	default:
		return DecisionNone, fmt.Errorf("unknown sub-decision %q", s)
	}
}

// Target is one entity a confirmation request would delete
type Target struct {
	ID          string
	Label       string
	Children    []string // Direct dependents, detached on reparent
	Descendants []string // Every transitive dependent, deleted on cascade
}

type ConfirmationRequest struct {
	ID        string
	Table     string
	Kind      domain.OperationKind
	Targets   []Target
	Decision  SubDecision
	CreatedAt time.Time
}

func NewConfirmationRequest(table string, kind domain.OperationKind, targets []Target) *ConfirmationRequest {
	return &ConfirmationRequest{
		ID:        uuid.NewString(),
		Table:     table,
		Kind:      kind,
		Targets:   targets,
		CreatedAt: time.Now(),
	}
}

// HasDependents reports whether any target has children
func (r *ConfirmationRequest) HasDependents() bool {
	for _, t := range r.Targets {
		if len(t.Children) > 0 {
			return true
		}
	}
	return false
}

func (r *ConfirmationRequest) TargetIDs() []string {
	ids := make([]string, 0, len(r.Targets))
	for _, t := range r.Targets {
		ids = append(ids, t.ID)
	}
	return ids
}

func (r *ConfirmationRequest) clone() *ConfirmationRequest {
	c := *r
	c.Targets = append([]Target(nil), r.Targets...)
	return &c
}

// Workflow gates destructive operations behind an explicit confirmation:
// Idle -> Requested -> (NeedsSubDecision) -> Confirmed | Cancelled -> Idle.
type Workflow struct {
	mu      sync.Mutex
	state   State
	last    State // Terminal state of the previous request
	pending *ConfirmationRequest
}

func NewWorkflow() *Workflow {
	return &Workflow{state: StateIdle}
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Last returns StateConfirmed or StateCancelled for the previous request,
// StateIdle when none has ended yet
func (w *Workflow) Last() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Pending returns a copy of the open request
func (w *Workflow) Pending() (*ConfirmationRequest, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return nil, false
	}
	return w.pending.clone(), true
}

// Request opens a confirmation. Requests whose targets have dependents enter
// NeedsSubDecision and cannot be confirmed until Decide is called.
func (w *Workflow) Request(req *ConfirmationRequest) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateIdle {
		return domain.ErrRequestPending
	}
	if len(req.Targets) == 0 {
		return domain.ErrNothingSelected
	}

	w.pending = req.clone()
	w.pending.Decision = DecisionNone
	if w.pending.HasDependents() {
		w.state = StateNeedsSubDecision
	} else {
		w.state = StateRequested
	}
	return nil
}

// Decide records the cascade or reparent choice. It may be changed until Confirm.
func (w *Workflow) Decide(decision SubDecision) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateNeedsSubDecision:
	case StateRequested:
		return domain.ErrSubDecisionInvalid
	default:
		return domain.ErrNoPendingRequest
	}

	if decision != DecisionCascade && decision != DecisionReparent {
		return domain.ErrSubDecisionRequired
	}
	w.pending.Decision = decision
	return nil
}

// CanConfirm is false while a required sub-decision is missing
func (w *Workflow) CanConfirm() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canConfirm()
}

func (w *Workflow) canConfirm() bool {
	switch w.state {
	case StateRequested:
		return true
	case StateNeedsSubDecision:
		return w.pending.Decision != DecisionNone
	default:
		return false
	}
}

// Confirm moves the pending request to Confirmed and hands it to the caller
// for execution. Finish must be called once execution is over.
func (w *Workflow) Confirm() (*ConfirmationRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateRequested, StateNeedsSubDecision:
	default:
		return nil, domain.ErrNoPendingRequest
	}
	if !w.canConfirm() {
		return nil, domain.ErrSubDecisionRequired
	}

	w.state = StateConfirmed
	return w.pending.clone(), nil
}

// Finish returns a confirmed workflow to Idle
func (w *Workflow) Finish() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateConfirmed {
		w.state = StateIdle
		w.last = StateConfirmed
		w.pending = nil
	}
}

// Cancel discards the pending request and returns to Idle
func (w *Workflow) Cancel() (*ConfirmationRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateRequested, StateNeedsSubDecision:
	default:
		return nil, domain.ErrNoPendingRequest
	}

	cancelled := w.pending
	w.pending = nil
	w.state = StateIdle
	w.last = StateCancelled
	return cancelled, nil
}
