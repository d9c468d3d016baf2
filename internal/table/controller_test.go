package table

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"storefront/admin/internal/domain"
	"storefront/admin/internal/domain/event"
)

type recordingAuditor struct {
	ops []*event.OperationEvent
}

func (r *recordingAuditor) RecordOperation(ctx context.Context, op *event.OperationEvent) error {
	r.ops = append(r.ops, op)
	return nil
}

type memoryViews map[string]ViewState

func (m memoryViews) LoadView(ctx context.Context, table string) (*ViewState, error) {
	v, ok := m[table]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m memoryViews) SaveView(ctx context.Context, table string, view ViewState) error {
	m[table] = view
	return nil
}

func newCategoryController(t *testing.T, backend *fakeCategories, pageSize int, options ...ControllerOption) *Controller[domain.Category] {
	t.Helper()
	c := NewController[domain.Category](backend, categoryOptions(pageSize), options...)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return c
}

func numbered(n int) []domain.Category {
	out := make([]domain.Category, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, cat(fmt.Sprintf("%02d", i), ""))
	}
	return out
}

func TestController_DeleteCategoryReparentsChildren(t *testing.T) {
	backend := newFakeCategories(cat("A", ""), cat("B", "A"), cat("C", ""))
	notices := &recordingNotifier{}
	auditor := &recordingAuditor{}
	c := newCategoryController(t, backend, 10, WithNotifier(notices), WithAuditor(auditor))

	intent, err := c.Dispatch(ActionDelete, "A")
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if intent.Kind != IntentConfirm || intent.Request == nil {
		t.Fatalf("intent = %+v, want a confirmation", intent)
	}
	if slices.Contains(backend.Calls(), "delete A") {
		t.Fatal("dispatching delete must not mutate")
	}
	if c.State() != StateNeedsSubDecision {
		t.Fatalf("state = %s", c.State())
	}
	if _, err := c.Confirm(context.Background()); !errors.Is(err, domain.ErrSubDecisionRequired) {
		t.Fatalf("Confirm() before Decide error = %v", err)
	}

	if err := c.Decide(DecisionReparent); err != nil {
		t.Fatal(err)
	}
	result, err := c.Confirm(context.Background())
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	if result.Outcome() != domain.OutcomeAllSucceeded {
		t.Errorf("result = %+v", result)
	}
	want := []string{"list", "detach B", "delete A", "list"}
	if calls := backend.Calls(); !slices.Equal(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}

	collection := c.Collection()
	if got := ids(collection.Items); !slices.Equal(got, []string{"B", "C"}) {
		t.Fatalf("collection = %v, want [B C]", got)
	}
	if b, _ := collection.Get("B"); b.Parent != nil {
		t.Errorf("B.Parent = %v, want nil", *b.Parent)
	}

	if c.State() != StateIdle {
		t.Errorf("state after confirm = %s", c.State())
	}
	if n, ok := notices.Last(); !ok || n.Level != domain.NoticeInfo || n.Message != "deleted 1, detached 1" {
		t.Errorf("notice = %+v", n)
	}
	if len(auditor.ops) != 1 || auditor.ops[0].Decision != "reparent" || auditor.ops[0].Table != "categories" {
		t.Errorf("audited = %+v", auditor.ops)
	}
}

func TestController_CascadeDeletesDescendants(t *testing.T) {
	backend := newFakeCategories(cat("A", ""), cat("B", "A"), cat("D", "B"), cat("C", ""))
	c := newCategoryController(t, backend, 10)

	req, err := c.requestDelete("A")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(req.Targets[0].Children, []string{"B"}) || !slices.Equal(req.Targets[0].Descendants, []string{"B", "D"}) {
		t.Fatalf("target = %+v", req.Targets[0])
	}

	if err := c.Decide(DecisionCascade); err != nil {
		t.Fatal(err)
	}
	result, err := c.Confirm(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(result.Deleted, []string{"A", "B", "D"}) {
		t.Errorf("Deleted = %v", result.Deleted)
	}
	if got := ids(c.Collection().Items); !slices.Equal(got, []string{"C"}) {
		t.Errorf("collection = %v", got)
	}
}

func TestController_BulkDeletePartialFailureKeepsFailedSelected(t *testing.T) {
	backend := newFakeCategories(cat("1", ""), cat("2", ""), cat("3", ""))
	backend.failDelete["2"] = "category is in use"
	notices := &recordingNotifier{}
	c := newCategoryController(t, backend, 10, WithNotifier(notices))

	if state := c.ToggleAllOnPage(); state != CheckAll {
		t.Fatalf("header = %s", state)
	}
	if _, err := c.RequestBulkDelete(); err != nil {
		t.Fatal(err)
	}
	if c.State() != StateRequested {
		t.Fatalf("state = %s", c.State())
	}

	result, err := c.Confirm(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Attempted != 3 || result.Succeeded != 2 || result.Failed != 1 {
		t.Fatalf("result = %+v", result)
	}
	if got := result.FailureReasons(); !slices.Equal(got, []string{"2: category is in use"}) {
		t.Errorf("FailureReasons = %v", got)
	}
	if got := c.Selected(); !slices.Equal(got, []string{"2"}) {
		t.Errorf("selection = %v, want [2]", got)
	}
	if got := ids(c.Collection().Items); !slices.Equal(got, []string{"2"}) {
		t.Errorf("collection = %v", got)
	}
	if n, _ := notices.Last(); n.Level != domain.NoticeWarning || n.Outcome != domain.OutcomePartial {
		t.Errorf("notice = %+v", n)
	}
}

func TestController_PageClampsAfterShrink(t *testing.T) {
	backend := newFakeCategories(numbered(12)...)
	c := newCategoryController(t, backend, 10)

	c.SetPage(1)
	page := c.Page()
	if page.Page != 1 || len(page.Items) != 2 || page.PageCount != 2 {
		t.Fatalf("page = %d with %d items of %d pages", page.Page, len(page.Items), page.PageCount)
	}

	for _, id := range []string{"01", "02", "03"} {
		if err := c.ToggleOne(id); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := c.RequestBulkDelete(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}

	page = c.Page()
	if page.Total != 9 || page.Page != 0 || page.PageCount != 1 || len(page.Items) != 9 {
		t.Errorf("page = %+v", page)
	}
	if c.ViewState().Page != 0 {
		t.Errorf("view page = %d, want 0", c.ViewState().Page)
	}
}

func TestController_SelectionStaysWithinCollection(t *testing.T) {
	backend := newFakeCategories(numbered(5)...)
	c := newCategoryController(t, backend, 2)

	if err := c.ToggleOne("missing"); !errors.Is(err, domain.ErrUnknownEntity) {
		t.Errorf("ToggleOne(missing) error = %v", err)
	}
	c.ToggleAllFiltered()
	if len(c.Selected()) != 5 {
		t.Fatalf("selected = %v", c.Selected())
	}

	// Entities disappear remotely between loads.
	backend.mu.Lock()
	backend.items = backend.items[:2]
	backend.mu.Unlock()
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	collection := c.Collection()
	for _, id := range c.Selected() {
		if !collection.Has(id) {
			t.Errorf("selected id %s is not in the collection", id)
		}
	}
	if got := c.Selected(); !slices.Equal(got, []string{"01", "02"}) {
		t.Errorf("selected = %v", got)
	}
}

func TestController_FilterResetsPageAndDrivesHeader(t *testing.T) {
	backend := newFakeCategories(
		domain.Category{ID: "1", Title: "Shirts"},
		domain.Category{ID: "2", Title: "Shoes"},
		domain.Category{ID: "3", Title: "T-Shirts"},
	)
	c := newCategoryController(t, backend, 1)
	c.SetPage(2)

	c.SetFilter("shirt")
	page := c.Page()
	if page.Page != 0 || page.Filtered != 2 || page.Total != 3 {
		t.Fatalf("page = %+v", page)
	}

	if err := c.ToggleOne("1"); err != nil {
		t.Fatal(err)
	}
	c.SetPage(1)
	if page := c.Page(); page.Header != CheckNone || !slices.Equal(page.IDs, []string{"3"}) {
		t.Errorf("page 1 = %+v", page)
	}

	c.SetFilter("")
	if got := ids(c.Page().Items); !slices.Equal(got, []string{"1"}) {
		t.Errorf("page 0 without filter = %v", got)
	}
}

func TestController_LoadFailure(t *testing.T) {
	backend := newFakeCategories(cat("A", ""))
	notices := &recordingNotifier{}
	c := newCategoryController(t, backend, 10, WithNotifier(notices))
	if err := c.ToggleOne("A"); err != nil {
		t.Fatal(err)
	}

	backend.failList = &domain.APIError{Status: 500, Message: "database offline"}
	err := c.Load(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	snap := c.Snapshot()
	if snap.Total != 0 || snap.LoadErr == nil || snap.Selected != 0 {
		t.Errorf("snapshot = %+v", snap)
	}
	if n, _ := notices.Last(); n.Level != domain.NoticeError || n.Message != "database offline" {
		t.Errorf("notice = %+v", n)
	}
}

func TestController_DispatchRoutes(t *testing.T) {
	backend := newFakeCategories(cat("A/1", ""))
	c := newCategoryController(t, backend, 10)

	view, err := c.Dispatch(ActionView, "A/1")
	if err != nil || view.Kind != IntentNavigate || view.Route != "/admin/categories/A%2F1" {
		t.Errorf("view = %+v, %v", view, err)
	}
	edit, err := c.Dispatch(ActionEdit, "A/1")
	if err != nil || edit.Route != "/admin/categories/A%2F1/edit" {
		t.Errorf("edit = %+v, %v", edit, err)
	}
	if _, err := c.Dispatch(ActionView, "B"); !errors.Is(err, domain.ErrUnknownEntity) {
		t.Errorf("unknown id error = %v", err)
	}
	if _, err := c.Dispatch(Action("archive"), "A/1"); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestController_CancelLeavesEverything(t *testing.T) {
	backend := newFakeCategories(cat("1", ""), cat("2", ""))
	c := newCategoryController(t, backend, 10)
	c.ToggleAllFiltered()

	if _, err := c.RequestBulkDelete(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.RequestBulkDelete(); !errors.Is(err, domain.ErrRequestPending) {
		t.Errorf("second request error = %v", err)
	}
	if err := c.Cancel(); err != nil {
		t.Fatal(err)
	}

	if calls := backend.Calls(); !slices.Equal(calls, []string{"list"}) {
		t.Errorf("calls = %v", calls)
	}
	if len(c.Selected()) != 2 || c.Collection().Len() != 2 || c.State() != StateIdle {
		t.Error("cancel must not touch selection, collection or state")
	}
}

func TestController_RequestBulkDeleteNothingSelected(t *testing.T) {
	c := newCategoryController(t, newFakeCategories(cat("1", "")), 10)
	if _, err := c.RequestBulkDelete(); !errors.Is(err, domain.ErrNothingSelected) {
		t.Errorf("error = %v", err)
	}
}

func TestController_BulkWithParentAndChildSelected(t *testing.T) {
	backend := newFakeCategories(cat("A", ""), cat("B", "A"))
	c := newCategoryController(t, backend, 10)
	c.ToggleAllFiltered()

	req, err := c.RequestBulkDelete()
	if err != nil {
		t.Fatal(err)
	}
	// B is a target of its own, so A has no remaining dependents.
	if req.HasDependents() || c.State() != StateRequested {
		t.Fatalf("request = %+v, state %s", req, c.State())
	}
	result, err := c.Confirm(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(result.Deleted, []string{"A", "B"}) {
		t.Errorf("Deleted = %v", result.Deleted)
	}
}

func TestController_SnapshotAndViewPersistence(t *testing.T) {
	backend := newFakeCategories(cat("A", ""), cat("B", "A"))
	views := memoryViews{}
	c := newCategoryController(t, backend, 10, WithViewStore(views))

	if err := c.SetColumnVisible("parent", false); err != nil {
		t.Fatal(err)
	}
	if err := c.SetSort("title", SortDesc); err != nil {
		t.Fatal(err)
	}
	if err := c.SetSort("nope", SortAsc); err == nil {
		t.Error("expected error for unknown column")
	}

	snap := c.Snapshot()
	if len(snap.Columns) != 1 || snap.Columns[0].Key != "title" {
		t.Errorf("columns = %+v", snap.Columns)
	}
	if len(snap.Rows) != 2 || snap.Rows[0].ID != "B" || snap.Rows[0].Cells[0] != "Category B" {
		t.Errorf("rows = %+v", snap.Rows)
	}

	if err := c.Persist(context.Background()); err != nil {
		t.Fatal(err)
	}

	restored := NewController[domain.Category](backend, categoryOptions(10), WithViewStore(views))
	if err := restored.Restore(context.Background()); err != nil {
		t.Fatal(err)
	}
	view := restored.ViewState()
	if view.Sort == nil || view.Sort.Direction != SortDesc || !view.Hidden["parent"] {
		t.Errorf("restored view = %+v", view)
	}
}
