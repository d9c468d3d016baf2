package table

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"storefront/admin/internal/domain"
)

// fakeCategories is an in-memory backend that records every call
type fakeCategories struct {
	mu         sync.Mutex
	items      []domain.Category
	failDelete map[string]string
	failDetach map[string]string
	failList   error
	calls      []string
}

func newFakeCategories(items ...domain.Category) *fakeCategories {
	return &fakeCategories{
		items:      items,
		failDelete: map[string]string{},
		failDetach: map[string]string{},
	}
}

func (f *fakeCategories) List(ctx context.Context) ([]domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "list")
	if f.failList != nil {
		return nil, f.failList
	}
	return slices.Clone(f.items), nil
}

func (f *fakeCategories) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete "+id)
	if msg, ok := f.failDelete[id]; ok {
		return fmt.Errorf("failed to delete categories %s: %w", id, &domain.APIError{Status: 400, Message: msg})
	}
	f.items = slices.DeleteFunc(f.items, func(c domain.Category) bool { return c.ID == id })
	return nil
}

func (f *fakeCategories) Detach(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "detach "+id)
	if msg, ok := f.failDetach[id]; ok {
		return &domain.APIError{Status: 400, Message: msg}
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Parent = nil
		}
	}
	return nil
}

func (f *fakeCategories) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeCategories) Items() []domain.Category {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

func cat(id string, parent string) domain.Category {
	c := domain.Category{ID: id, Title: "Category " + id}
	if parent != "" {
		c.Parent = &domain.Ref{ID: parent}
	}
	return c
}

func categoryOptions(pageSize int) Options[domain.Category] {
	return Options[domain.Category]{
		Name:        "categories",
		BasePath:    "/admin/categories",
		ID:          func(c domain.Category) string { return c.ID },
		FilterField: func(c domain.Category) string { return c.Title },
		Columns: []Column[domain.Category]{
			{Key: "title", Title: "Title", Value: func(c domain.Category) string { return c.Title }},
			{Key: "parent", Title: "Parent", Value: func(c domain.Category) string { return c.ParentID() }},
		},
		Dependents: func(c domain.Category, all []domain.Category) []domain.Category { return c.Children(all) },
		PageSize:   pageSize,
		MaxWorkers: 4,
	}
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (r *recordingNotifier) Notify(ctx context.Context, n domain.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

func (r *recordingNotifier) Last() (domain.Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return domain.Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

func ids(items []domain.Category) []string {
	out := make([]string, 0, len(items))
	for _, c := range items {
		out = append(out, c.ID)
	}
	return out
}
