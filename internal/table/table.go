package table

import (
	"context"

	"storefront/admin/internal/domain"
)

// Table is the entity-agnostic face of a Controller, used where the entity
// type is only known at runtime
type Table interface {
	Name() string
	Load(ctx context.Context) error
	Close()
	Restore(ctx context.Context) error
	Persist(ctx context.Context) error
	Snapshot() Snapshot

	SetFilter(text string)
	SetSort(column string, direction SortDirection) error
	ClearSort()
	SetPage(page int)
	SetPageSize(size int) error
	SetColumnVisible(key string, visible bool) error

	ToggleOne(id string) error
	ToggleAllOnPage() CheckState
	ToggleAllFiltered() CheckState
	Selected() []string

	Dispatch(action Action, id string) (Intent, error)
	RequestBulkDelete() (*ConfirmationRequest, error)
	State() State
	Pending() (*ConfirmationRequest, bool)
	CanConfirm() bool
	Decide(decision SubDecision) error
	Confirm(ctx context.Context) (*domain.BulkOperationResult, error)
	Cancel() error
}

var _ Table = (*Controller[struct{}])(nil)

type ColumnInfo struct {
	Key   string
	Title string
}

type Row struct {
	ID       string
	Cells    []string // One per visible column
	Selected bool
}

// Snapshot is a rendered page with only the visible columns
type Snapshot struct {
	Table     string
	Columns   []ColumnInfo
	Rows      []Row
	Page      int // 0-based
	PageCount int
	PageSize  int
	Total     int
	Filtered  int
	Selected  int
	Header    CheckState
	Filter    string
	Sort      *SortSpec
	LoadErr   error
}

func (c *Controller[T]) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	page := c.page()

	visible := make([]Column[T], 0, len(c.opts.Columns))
	columns := make([]ColumnInfo, 0, len(c.opts.Columns))
	for _, col := range c.opts.Columns {
		if c.view.Hidden[col.Key] {
			continue
		}
		visible = append(visible, col)
		columns = append(columns, ColumnInfo{Key: col.Key, Title: col.Title})
	}

	rows := make([]Row, 0, len(page.Items))
	for i, item := range page.Items {
		cells := make([]string, 0, len(visible))
		for _, col := range visible {
			cells = append(cells, col.Value(item))
		}
		rows = append(rows, Row{
			ID:       page.IDs[i],
			Cells:    cells,
			Selected: c.selection.Has(page.IDs[i]),
		})
	}

	snap := Snapshot{
		Table:     c.opts.Name,
		Columns:   columns,
		Rows:      rows,
		Page:      page.Page,
		PageCount: page.PageCount,
		PageSize:  page.PageSize,
		Total:     page.Total,
		Filtered:  page.Filtered,
		Selected:  c.selection.Len(),
		Header:    page.Header,
		Filter:    c.view.Filter,
		LoadErr:   page.LoadErr,
	}
	if c.view.Sort != nil {
		sort := *c.view.Sort
		snap.Sort = &sort
	}
	return snap
}
