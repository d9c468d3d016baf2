package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"storefront/admin/internal/domain"
	"storefront/admin/internal/domain/event"
	"storefront/admin/internal/queue"
	"storefront/admin/internal/repository"
	"storefront/admin/internal/table"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownTable          = errors.New("unknown table")
	ErrCancelled             = errors.New("operation cancelled")
	ErrNotificationsDisabled = errors.New("notifications need redis to be enabled")
	ErrAuditDisabled         = errors.New("operation history needs the database to be enabled")
)

const readBlock = 5 * time.Second

// ListQuery is the view a list call should render. Page is 1-based as shown
// to the user; zero values keep the saved view.
type ListQuery struct {
	Filter    *string
	Sort      string
	Direction table.SortDirection
	Page      int
	PageSize  int
	Hide      []string
	Show      []string
}

// DeleteOptions resolves the confirmation workflow of one delete. Confirm is
// asked once the request is complete; nil confirms automatically.
type DeleteOptions struct {
	Decision table.SubDecision
	Confirm  func(req *table.ConfirmationRequest) bool
}

type Service struct {
	tables      map[string]table.Table
	queue       queue.Queue
	operations  repository.OperationRepository
	minIdleTime time.Duration
}

// NewService wires the tables; queue and operations may be nil when Redis or
// the database are disabled
func NewService(
	tables map[string]table.Table,
	queue queue.Queue,
	operations repository.OperationRepository,
	minIdleTime int,
) *Service {
	return &Service{
		tables:      tables,
		queue:       queue,
		operations:  operations,
		minIdleTime: time.Duration(minIdleTime) * time.Second,
	}
}

// Tables returns the registered table names sorted
func (s *Service) Tables() []string {
	return slices.Sorted(maps.Keys(s.tables))
}

func (s *Service) Table(name string) (table.Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w %q, expected one of %v", ErrUnknownTable, name, s.Tables())
	}
	return t, nil
}

// List loads a table and renders one page. The view is restored before and
// saved after, so filters and sort stick between calls.
func (s *Service) List(ctx context.Context, name string, q ListQuery) (table.Snapshot, error) {
	t, err := s.Table(name)
	if err != nil {
		return table.Snapshot{}, err
	}

	if err := t.Restore(ctx); err != nil {
		log.Warnf("⚠️ %v", err)
	}

	if err := applyQuery(t, q); err != nil {
		return table.Snapshot{}, err
	}

	if err := t.Load(ctx); err != nil {
		// The page is still rendered, empty, with the error attached
		log.WithField("table", name).Debugf("Load failed: %v", err)
	}

	// Load clamps the page, so it is applied once more against the loaded collection
	if q.Page > 0 {
		t.SetPage(q.Page - 1)
	}

	if err := t.Persist(ctx); err != nil {
		log.Warnf("⚠️ %v", err)
	}
	return t.Snapshot(), nil
}

func applyQuery(t table.Table, q ListQuery) error {
	if q.Filter != nil {
		t.SetFilter(*q.Filter)
	}
	if q.Sort != "" {
		if err := t.SetSort(q.Sort, q.Direction); err != nil {
			return err
		}
	}
	if q.PageSize > 0 {
		if err := t.SetPageSize(q.PageSize); err != nil {
			return err
		}
	}
	for _, key := range q.Hide {
		if err := t.SetColumnVisible(key, false); err != nil {
			return err
		}
	}
	for _, key := range q.Show {
		if err := t.SetColumnVisible(key, true); err != nil {
			return err
		}
	}
	return nil
}

// Open resolves a view or edit action to the route it navigates to
func (s *Service) Open(ctx context.Context, name, id string, action table.Action) (string, error) {
	if action == table.ActionDelete {
		return "", fmt.Errorf("%s is not a navigation action", action)
	}

	t, err := s.loaded(ctx, name)
	if err != nil {
		return "", err
	}

	intent, err := t.Dispatch(action, id)
	if err != nil {
		return "", err
	}
	return intent.Route, nil
}

// Delete runs a single-row delete through the confirmation workflow
func (s *Service) Delete(ctx context.Context, name, id string, opts DeleteOptions) (*domain.BulkOperationResult, error) {
	t, err := s.loaded(ctx, name)
	if err != nil {
		return nil, err
	}

	intent, err := t.Dispatch(table.ActionDelete, id)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, t, intent.Request, opts)
}

// BulkDelete deletes exactly ids through one confirmation. Rows left selected
// by an earlier call are deselected first.
func (s *Service) BulkDelete(ctx context.Context, name string, ids []string, opts DeleteOptions) (*domain.BulkOperationResult, error) {
	t, err := s.loaded(ctx, name)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	selected := make(map[string]bool)
	for _, id := range t.Selected() {
		selected[id] = true
	}

	for id := range wanted {
		if selected[id] {
			continue
		}
		if err := t.ToggleOne(id); err != nil {
			return nil, err
		}
	}
	for id := range selected {
		if wanted[id] {
			continue
		}
		if err := t.ToggleOne(id); err != nil {
			return nil, fmt.Errorf("failed to deselect %s: %w", id, err)
		}
	}

	req, err := t.RequestBulkDelete()
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, t, req, opts)
}

func (s *Service) resolve(ctx context.Context, t table.Table, req *table.ConfirmationRequest, opts DeleteOptions) (*domain.BulkOperationResult, error) {
	if t.State() == table.StateNeedsSubDecision {
		if opts.Decision == table.DecisionNone {
			s.cancel(t)
			return nil, fmt.Errorf("%s has dependents, choose cascade or reparent: %w",
				labels(req), domain.ErrSubDecisionRequired)
		}
		if err := t.Decide(opts.Decision); err != nil {
			s.cancel(t)
			return nil, err
		}
		// The copy handed to Confirm carries the decision
		if pending, ok := t.Pending(); ok {
			req = pending
		}
	}

	if opts.Confirm != nil && !opts.Confirm(req) {
		s.cancel(t)
		return nil, ErrCancelled
	}

	return t.Confirm(ctx)
}

func (s *Service) cancel(t table.Table) {
	if err := t.Cancel(); err != nil {
		log.WithField("table", t.Name()).Warnf("⚠️ Failed to cancel pending request: %v", err)
	}
}

func (s *Service) loaded(ctx context.Context, name string) (table.Table, error) {
	t, err := s.Table(name)
	if err != nil {
		return nil, err
	}
	if err := t.Load(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

func labels(req *table.ConfirmationRequest) string {
	out := make([]string, 0, len(req.Targets))
	for _, target := range req.Targets {
		if len(target.Children) > 0 {
			out = append(out, fmt.Sprintf("%q (%d sub-items)", target.Label, len(target.Descendants)))
		}
	}
	return strings.Join(out, ", ")
}

// History lists recorded operations, newest first
func (s *Service) History(ctx context.Context, name string, limit int) ([]*event.OperationEvent, error) {
	if s.operations == nil {
		return nil, ErrAuditDisabled
	}
	if name != "" {
		if _, err := s.Table(name); err != nil {
			return nil, err
		}
	}
	return s.operations.ListOperations(ctx, name, limit)
}

// TailNotices hands every published notice to handle until ctx is done.
// Messages left unacknowledged by a crashed consumer are claimed periodically.
func (s *Service) TailNotices(ctx context.Context, consumer string, handle func(domain.Notice)) error {
	if s.queue == nil {
		return ErrNotificationsDisabled
	}

	var mu sync.Mutex
	process := func(ctx context.Context, msg *redis.XMessage) error {
		notice, err := queue.DecodeNotice(*msg)
		if err != nil {
			// Undecodable messages are acknowledged so they are not claimed forever
			log.Errorf("❌ %v", err)
		} else {
			mu.Lock()
			handle(notice)
			mu.Unlock()
		}
		if err := s.queue.Ack(ctx, event.NoticeEventType, msg.ID); err != nil {
			return fmt.Errorf("failed to ack message %s: %w", msg.ID, err)
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)

	if s.minIdleTime > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(s.minIdleTime)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					claimed, err := s.queue.AutoClaim(ctx, consumer, event.NoticeEventType, s.minIdleTime)
					if err != nil {
						log.Errorf("❌ Failed to auto-claim notices: %v", err)
						continue
					}
					if len(claimed) > 0 {
						log.Infof("🔄 Auto-claimed %d notices", len(claimed))
					}
					for _, msg := range claimed {
						if err := process(ctx, &msg); err != nil {
							log.Errorf("❌ Failed to process auto-claimed notice %s: %v", msg.ID, err)
						}
					}
				}
			}
		})
	}

	g.Go(func() error {
		log.Infof("🚀 Tailing notices as consumer %s", consumer)
		for {
			select {
			case <-ctx.Done():
				log.Info("🛑 Notice tail stopping")
				return nil
			default:
			}

			msg, err := s.queue.Read(ctx, consumer, event.NoticeEventType, readBlock)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Errorf("❌ Failed to read notices: %v", err)
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
				continue
			}
			if msg == nil {
				continue
			}
			if err := process(ctx, msg); err != nil {
				log.Errorf("❌ Failed to process notice %s: %v", msg.ID, err)
			}
		}
	})

	return g.Wait()
}

// Close makes late load results of every table stale
func (s *Service) Close() {
	for _, t := range s.tables {
		t.Close()
	}
}
