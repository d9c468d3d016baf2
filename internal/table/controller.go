package table

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"storefront/admin/internal/domain"
	"storefront/admin/internal/domain/event"

	log "github.com/sirupsen/logrus"
)

// Backend is the remote side of one table
type Backend[T any] interface {
	Lister[T]
	Mutator
}

// Options describe one entity type to the generic controller
type Options[T any] struct {
	Name        string // Collection name, also used in notices and logs
	BasePath    string // Route prefix for view and edit intents
	ID          func(T) string
	Label       func(T) string // Shown in confirmation prompts, defaults to FilterField
	FilterField func(T) string
	Columns     []Column[T]
	Dependents  func(item T, all []T) []T // Direct dependents; nil for flat tables
	PageSize    int
	MaxWorkers  int
}

type ControllerOption func(*controllerDeps)

type controllerDeps struct {
	notifier Notifier
	auditor  Auditor
	views    ViewStore
}

func WithNotifier(n Notifier) ControllerOption {
	return func(d *controllerDeps) { d.notifier = n }
}

func WithAuditor(a Auditor) ControllerOption {
	return func(d *controllerDeps) { d.auditor = a }
}

func WithViewStore(v ViewStore) ControllerOption {
	return func(d *controllerDeps) { d.views = v }
}

// Page is the derived view of the current collection
type Page[T any] struct {
	Items     []T
	IDs       []string
	Page      int // 0-based, already clamped
	PageCount int
	PageSize  int
	Total     int // Items in the collection
	Filtered  int // Items passing the filter
	Header    CheckState
	LoadErr   error
}

// Controller is the admin table for one entity type
type Controller[T any] struct {
	opts        Options[T]
	source      *Source[T]
	coordinator *Coordinator
	dispatcher  *Dispatcher
	workflow    *Workflow
	deps        controllerDeps
	logger      *log.Entry

	mu        sync.Mutex
	view      ViewState
	selection *Selection
}

func NewController[T any](backend Backend[T], opts Options[T], options ...ControllerOption) *Controller[T] {
	if opts.Label == nil {
		opts.Label = opts.FilterField
	}
	if opts.Label == nil {
		opts.Label = opts.ID
	}

	deps := controllerDeps{notifier: LogNotifier{}}
	for _, o := range options {
		o(&deps)
	}

	var detacher Detacher
	if d, ok := backend.(Detacher); ok && opts.Dependents != nil {
		detacher = d
	}

	c := &Controller[T]{
		opts:        opts,
		source:      NewSource[T](opts.Name, backend, opts.ID),
		coordinator: NewCoordinator(backend, detacher, opts.MaxWorkers),
		workflow:    NewWorkflow(),
		deps:        deps,
		logger:      log.WithField("table", opts.Name),
		view:        DefaultViewState(opts.PageSize),
		selection:   NewSelection(),
	}
	c.dispatcher = NewDispatcher(opts.BasePath, c.requestDelete)
	return c
}

func (c *Controller[T]) Name() string {
	return c.opts.Name
}

// Load fetches the collection and reconciles selection and page with it.
// Failures are returned as values and reported as a notice.
func (c *Controller[T]) Load(ctx context.Context) error {
	collection, err := c.source.Load(ctx)
	if errors.Is(err, ErrStale) {
		return nil
	}

	c.mu.Lock()
	c.reconcile(collection)
	c.mu.Unlock()

	if err != nil {
		c.notify(ctx, domain.NoticeForError(c.opts.Name, err))
		return err
	}
	return nil
}

// Close ignores every load result that arrives afterwards
func (c *Controller[T]) Close() {
	c.source.Close()
}

// reconcile keeps selection a subset of the collection and the page in range
func (c *Controller[T]) reconcile(collection *Collection[T]) {
	if dropped := c.selection.Retain(collection.Has); dropped > 0 {
		c.logger.Debugf("Dropped %d selected ids no longer in the collection", dropped)
	}
	filtered := ApplyFilter(collection.Items, c.view.Filter, c.opts.FilterField)
	c.view.Page = ClampPage(c.view.Page, len(filtered), c.view.PageSize)
}

// Collection returns the current collection snapshot
func (c *Controller[T]) Collection() *Collection[T] {
	return c.source.Current()
}

// Page derives filter, sort and pagination over the current collection
func (c *Controller[T]) Page() Page[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page()
}

func (c *Controller[T]) page() Page[T] {
	collection := c.source.Current()
	filtered := ApplyFilter(collection.Items, c.view.Filter, c.opts.FilterField)
	sorted := ApplySort(filtered, c.view.Sort, c.opts.Columns)
	items, page := Paginate(sorted, c.view.Page, c.view.PageSize)

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, c.opts.ID(item))
	}

	return Page[T]{
		Items:     items,
		IDs:       ids,
		Page:      page,
		PageCount: PageCount(len(filtered), c.view.PageSize),
		PageSize:  c.view.PageSize,
		Total:     collection.Len(),
		Filtered:  len(filtered),
		Header:    c.selection.State(ids),
		LoadErr:   collection.Err,
	}
}

func (c *Controller[T]) filteredIDs() []string {
	filtered := ApplyFilter(c.source.Current().Items, c.view.Filter, c.opts.FilterField)
	ids := make([]string, 0, len(filtered))
	for _, item := range filtered {
		ids = append(ids, c.opts.ID(item))
	}
	return ids
}

func (c *Controller[T]) ViewState() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := c.view
	view.Hidden = cloneHidden(c.view.Hidden)
	return view
}

// SetFilter changes the filter text and goes back to the first page
func (c *Controller[T]) SetFilter(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Filter = text
	c.view.Page = 0
}

func (c *Controller[T]) SetSort(column string, direction SortDirection) error {
	if !slices.ContainsFunc(c.opts.Columns, func(col Column[T]) bool { return col.Key == column }) {
		return fmt.Errorf("unknown column %q for %s", column, c.opts.Name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Sort = &SortSpec{Column: column, Direction: direction}
	return nil
}

func (c *Controller[T]) ClearSort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Sort = nil
}

// SetPage moves to page (0-based); out of range values clamp
func (c *Controller[T]) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Page = ClampPage(page, len(c.filteredIDs()), c.view.PageSize)
}

func (c *Controller[T]) SetPageSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("page size must be positive, got %d", size)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.PageSize = size
	c.view.Page = ClampPage(c.view.Page, len(c.filteredIDs()), size)
	return nil
}

func (c *Controller[T]) SetColumnVisible(key string, visible bool) error {
	if !slices.ContainsFunc(c.opts.Columns, func(col Column[T]) bool { return col.Key == key }) {
		return fmt.Errorf("unknown column %q for %s", key, c.opts.Name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if visible {
		delete(c.view.Hidden, key)
		return nil
	}
	if c.view.Hidden == nil {
		c.view.Hidden = make(map[string]bool)
	}
	c.view.Hidden[key] = true
	return nil
}

// ToggleOne flips the selection of one row. Only ids in the collection can be selected.
func (c *Controller[T]) ToggleOne(id string) error {
	if !c.source.Current().Has(id) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownEntity, id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Toggle(id)
	return nil
}

func (c *Controller[T]) ToggleAllOnPage() CheckState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.ToggleAllOnPage(c.page().IDs)
}

func (c *Controller[T]) ToggleAllFiltered() CheckState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.ToggleAllFiltered(c.filteredIDs())
}

func (c *Controller[T]) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.IDs()
}

// Dispatch resolves a row action. Delete never mutates; it opens a confirmation.
func (c *Controller[T]) Dispatch(action Action, id string) (Intent, error) {
	if !c.source.Current().Has(id) {
		return Intent{}, fmt.Errorf("%w: %s", domain.ErrUnknownEntity, id)
	}
	return c.dispatcher.Dispatch(action, id)
}

func (c *Controller[T]) requestDelete(id string) (*ConfirmationRequest, error) {
	return c.request([]string{id})
}

// RequestBulkDelete opens a confirmation for every selected row
func (c *Controller[T]) RequestBulkDelete() (*ConfirmationRequest, error) {
	ids := c.Selected()
	if len(ids) == 0 {
		return nil, domain.ErrNothingSelected
	}
	return c.request(ids)
}

func (c *Controller[T]) request(ids []string) (*ConfirmationRequest, error) {
	collection := c.source.Current()

	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}

	targets := make([]Target, 0, len(ids))
	for _, id := range ids {
		item, ok := collection.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownEntity, id)
		}
		t := c.target(item, collection)
		// Dependents that are targets themselves get their own plan.
		t.Children = slices.DeleteFunc(t.Children, func(dep string) bool { return requested[dep] })
		t.Descendants = slices.DeleteFunc(t.Descendants, func(dep string) bool { return requested[dep] })
		targets = append(targets, t)
	}

	req := NewConfirmationRequest(c.opts.Name, domain.OperationDelete, targets)
	if err := c.workflow.Request(req); err != nil {
		return nil, err
	}

	pending, _ := c.workflow.Pending()
	c.logger.WithField("targets", req.TargetIDs()).
		Infof("🗑️ Delete requested, waiting for confirmation (%s)", c.workflow.State())
	return pending, nil
}

func (c *Controller[T]) target(item T, collection *Collection[T]) Target {
	t := Target{ID: c.opts.ID(item), Label: c.opts.Label(item)}
	if c.opts.Dependents == nil {
		return t
	}

	for _, child := range c.opts.Dependents(item, collection.Items) {
		t.Children = append(t.Children, c.opts.ID(child))
	}

	// Walk the tree breadth first; seen guards against cycles in bad data.
	seen := map[string]bool{t.ID: true}
	queue := []T{item}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, child := range c.opts.Dependents(next, collection.Items) {
			childID := c.opts.ID(child)
			if seen[childID] {
				continue
			}
			seen[childID] = true
			t.Descendants = append(t.Descendants, childID)
			queue = append(queue, child)
		}
	}
	return t
}

func (c *Controller[T]) State() State {
	return c.workflow.State()
}

func (c *Controller[T]) Pending() (*ConfirmationRequest, bool) {
	return c.workflow.Pending()
}

func (c *Controller[T]) CanConfirm() bool {
	return c.workflow.CanConfirm()
}

func (c *Controller[T]) Decide(decision SubDecision) error {
	return c.workflow.Decide(decision)
}

// Cancel discards the pending request; collection and view are untouched
func (c *Controller[T]) Cancel() error {
	req, err := c.workflow.Cancel()
	if err != nil {
		return err
	}
	c.logger.WithField("targets", req.TargetIDs()).Info("Delete cancelled")
	return nil
}

// Confirm executes the pending request. Partial failure is data in the
// returned result, not an error; the error is only set when nothing ran.
func (c *Controller[T]) Confirm(ctx context.Context) (*domain.BulkOperationResult, error) {
	req, err := c.workflow.Confirm()
	if err != nil {
		return nil, err
	}
	defer c.workflow.Finish()

	result := c.coordinator.Execute(ctx, plans(req))

	c.logger.WithFields(log.Fields{
		"attempted": result.Attempted,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Infof("Confirmed %s finished: %s", req.Kind, result.Summary())

	if result.Succeeded > 0 {
		c.mu.Lock()
		c.selection.Remove(result.Deleted...)
		c.mu.Unlock()

		if err := c.Load(ctx); err != nil {
			c.logger.Warnf("⚠️ Refetch after delete failed: %v", err)
		}
	}

	c.notify(ctx, domain.NoticeForResult(c.opts.Name, result))
	c.audit(ctx, req, result)

	return result, nil
}

// plans turns a confirmed request into coordinator work. A dependent shared
// by several targets is claimed by the first one only.
func plans(req *ConfirmationRequest) []Plan {
	claimed := make(map[string]bool, len(req.Targets))
	for _, t := range req.Targets {
		claimed[t.ID] = true
	}

	out := make([]Plan, 0, len(req.Targets))
	for _, t := range req.Targets {
		plan := Plan{TargetID: t.ID, Decision: req.Decision}

		dependents := t.Children
		if req.Decision == DecisionCascade {
			dependents = t.Descendants
		}
		for _, id := range dependents {
			if !claimed[id] {
				claimed[id] = true
				plan.Dependents = append(plan.Dependents, id)
			}
		}
		out = append(out, plan)
	}
	return out
}

func (c *Controller[T]) notify(ctx context.Context, notice domain.Notice) {
	if c.deps.notifier == nil {
		return
	}
	if err := c.deps.notifier.Notify(ctx, notice); err != nil {
		c.logger.Warnf("⚠️ Failed to deliver notice: %v", err)
	}
}

func (c *Controller[T]) audit(ctx context.Context, req *ConfirmationRequest, result *domain.BulkOperationResult) {
	if c.deps.auditor == nil {
		return
	}
	op := &event.OperationEvent{
		RequestID: req.ID,
		Table:     req.Table,
		Kind:      req.Kind,
		Decision:  req.Decision.String(),
		Targets:   req.TargetIDs(),
		Result:    result,
		At:        time.Now(),
	}
	if err := c.deps.auditor.RecordOperation(ctx, op); err != nil {
		c.logger.Warnf("⚠️ Failed to record operation %s: %v", req.ID, err)
	}
}

// Restore loads the saved view state, if a store is configured
func (c *Controller[T]) Restore(ctx context.Context) error {
	if c.deps.views == nil {
		return nil
	}
	saved, err := c.deps.views.LoadView(ctx, c.opts.Name)
	if err != nil {
		return fmt.Errorf("failed to restore view for %s: %w", c.opts.Name, err)
	}
	if saved == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if saved.PageSize <= 0 {
		saved.PageSize = c.view.PageSize
	}
	if saved.Sort != nil && !slices.ContainsFunc(c.opts.Columns, func(col Column[T]) bool { return col.Key == saved.Sort.Column }) {
		saved.Sort = nil
	}
	c.view = *saved
	return nil
}

// Persist saves the view state, if a store is configured
func (c *Controller[T]) Persist(ctx context.Context) error {
	if c.deps.views == nil {
		return nil
	}
	if err := c.deps.views.SaveView(ctx, c.opts.Name, c.ViewState()); err != nil {
		return fmt.Errorf("failed to persist view for %s: %w", c.opts.Name, err)
	}
	return nil
}

func cloneHidden(hidden map[string]bool) map[string]bool {
	if hidden == nil {
		return nil
	}
	out := make(map[string]bool, len(hidden))
	for k, v := range hidden {
		out[k] = v
	}
	return out
}
