package domain

import (
	"fmt"
	"strings"
)

type OperationKind string

const (
	OperationDelete   OperationKind = "delete"
	OperationReparent OperationKind = "reparent"
)

// Failure is one failed remote mutation inside a bulk operation
type Failure struct {
	ID     string        `json:"id"`
	Op     OperationKind `json:"op"`
	Reason string        `json:"reason"`
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s", f.ID, f.Reason)
}

type Outcome string

const (
	OutcomeAllSucceeded Outcome = "all_succeeded"
	OutcomePartial      Outcome = "partial"
	OutcomeAllFailed    Outcome = "all_failed"
)

// BulkOperationResult aggregates the remote mutations of one user action
type BulkOperationResult struct {
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`
	// Ids whose delete succeeded
	Deleted []string `json:"deleted,omitempty"`
	// Ids whose parent reference was cleared
	Detached []string `json:"detached,omitempty"`
}

// Outcome classifies the result; an empty result counts as all succeeded
func (r *BulkOperationResult) Outcome() Outcome {
	switch {
	case r.Failed == 0:
		return OutcomeAllSucceeded
	case r.Succeeded == 0:
		return OutcomeAllFailed
	default:
		return OutcomePartial
	}
}

// FailureReasons returns the failures as "id: reason" strings
func (r *BulkOperationResult) FailureReasons() []string {
	reasons := make([]string, 0, len(r.Failures))
	for _, failure := range r.Failures {
		reasons = append(reasons, failure.String())
	}
	return reasons
}

// Summary renders the one-line text shown after the operation
func (r *BulkOperationResult) Summary() string {
	deleted := len(r.Deleted)
	switch r.Outcome() {
	case OutcomeAllSucceeded:
		if len(r.Detached) > 0 {
			return fmt.Sprintf("deleted %d, detached %d", deleted, len(r.Detached))
		}
		return fmt.Sprintf("deleted %d", deleted)
	case OutcomeAllFailed:
		return fmt.Sprintf("failed %d: %s", r.Failed, strings.Join(r.FailureReasons(), "; "))
	default:
		return fmt.Sprintf("deleted %d, failed %d: %s", deleted, r.Failed, strings.Join(r.FailureReasons(), "; "))
	}
}
