package table

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"storefront/admin/internal/domain"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var errReparentUnsupported = errors.New("this table cannot detach dependents")

// Mutator deletes one entity
type Mutator interface {
	Delete(ctx context.Context, id string) error
}

// Detacher clears the parent reference of one entity
type Detacher interface {
	Detach(ctx context.Context, id string) error
}

// Plan is the ordered work for one confirmed target: dependents first, then the target
type Plan struct {
	TargetID   string
	Dependents []string
	Decision   SubDecision
}

// Coordinator fans mutations out concurrently and joins them all-settled:
// one failure never aborts the others.
type Coordinator struct {
	mutator    Mutator
	detacher   Detacher
	maxWorkers int
}

// NewCoordinator builds a coordinator; detacher may be nil for tables without a hierarchy
func NewCoordinator(mutator Mutator, detacher Detacher, maxWorkers int) *Coordinator {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Coordinator{
		mutator:    mutator,
		detacher:   detacher,
		maxWorkers: maxWorkers,
	}
}

// BulkDelete issues one independent delete per id
func (c *Coordinator) BulkDelete(ctx context.Context, ids []string) *domain.BulkOperationResult {
	plans := make([]Plan, 0, len(ids))
	for _, id := range ids {
		plans = append(plans, Plan{TargetID: id})
	}
	return c.Execute(ctx, plans)
}

// Execute runs every plan concurrently and aggregates the outcome
func (c *Coordinator) Execute(ctx context.Context, plans []Plan) *domain.BulkOperationResult {
	rec := &recorder{}

	g := new(errgroup.Group)
	g.SetLimit(c.maxWorkers)
	for _, plan := range plans {
		g.Go(func() error {
			c.run(ctx, plan, rec)
			return nil
		})
	}
	_ = g.Wait()

	return rec.result()
}

func (c *Coordinator) run(ctx context.Context, plan Plan, rec *recorder) {
	if len(plan.Dependents) > 0 {
		if plan.Decision == DecisionNone {
			rec.fail(plan.TargetID, domain.OperationDelete, domain.ErrSubDecisionRequired)
			return
		}
		failed := c.runDependents(ctx, plan, rec)
		if failed > 0 {
			// Deleting the target now would leave the failed dependents pointing at nothing.
			rec.fail(plan.TargetID, domain.OperationDelete,
				fmt.Errorf("skipped: %d dependent operations failed", failed))
			return
		}
	}

	if err := c.mutator.Delete(ctx, plan.TargetID); err != nil {
		log.WithField("id", plan.TargetID).Warnf("❌ Delete failed: %v", err)
		rec.fail(plan.TargetID, domain.OperationDelete, err)
		return
	}
	rec.deleted(plan.TargetID)
}

// runDependents applies the sub-decision to every dependent and returns how many failed
func (c *Coordinator) runDependents(ctx context.Context, plan Plan, rec *recorder) int {
	var (
		kind domain.OperationKind
		op   func(ctx context.Context, id string) error
	)
	switch plan.Decision {
	case DecisionCascade:
		kind, op = domain.OperationDelete, c.mutator.Delete
	case DecisionReparent:
		kind = domain.OperationReparent
		if c.detacher == nil {
			op = func(context.Context, string) error { return errReparentUnsupported }
		} else {
			op = c.detacher.Detach
		}
	default:
		return len(plan.Dependents)
	}

	var (
		mu     sync.Mutex
		failed int
	)
	g := new(errgroup.Group)
	g.SetLimit(c.maxWorkers)
	for _, id := range plan.Dependents {
		g.Go(func() error {
			if err := op(ctx, id); err != nil {
				log.WithFields(log.Fields{"id": id, "parent": plan.TargetID}).
					Warnf("❌ %s of dependent failed: %v", kind, err)
				rec.fail(id, kind, err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			if kind == domain.OperationReparent {
				rec.detached(id)
			} else {
				rec.deleted(id)
			}
			return nil
		})
	}
	_ = g.Wait()

	return failed
}

type recorder struct {
	mu  sync.Mutex
	res domain.BulkOperationResult
}

func (r *recorder) deleted(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res.Attempted++
	r.res.Succeeded++
	r.res.Deleted = append(r.res.Deleted, id)
}

func (r *recorder) detached(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res.Attempted++
	r.res.Succeeded++
	r.res.Detached = append(r.res.Detached, id)
}

func (r *recorder) fail(id string, kind domain.OperationKind, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res.Attempted++
	r.res.Failed++
	r.res.Failures = append(r.res.Failures, domain.Failure{
		ID:     id,
		Op:     kind,
		Reason: domain.UserMessage(err),
	})
}

// result sorts everything so summaries do not depend on completion order
func (r *recorder) result() *domain.BulkOperationResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.res
	slices.Sort(res.Deleted)
	slices.Sort(res.Detached)
	slices.SortFunc(res.Failures, func(a, b domain.Failure) int {
		if c := strings.Compare(a.ID, b.ID); c != 0 {
			return c
		}
		return strings.Compare(string(a.Op), string(b.Op))
	})
	return &res
}
