package table

import (
	"fmt"
	"slices"
	"strings"
)

const DefaultPageSize = 10

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func ParseSortDirection(s string) (SortDirection, error) {
	switch SortDirection(strings.ToLower(s)) {
	case SortAsc, "":
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	default:
		return "", fmt.Errorf("unknown sort direction %q", s)
	}
}

type SortSpec struct {
	Column    string        `json:"column"`
	Direction SortDirection `json:"direction"`
}

// ViewState is the client-only display state of one table. It never holds
// entity data; the selection lives next to it in the controller and is
// never persisted.
type ViewState struct {
	Sort     *SortSpec       `json:"sort,omitempty"`
	Hidden   map[string]bool `json:"hidden,omitempty"` // Column keys switched off, every other column is visible
	Filter   string          `json:"filter,omitempty"`
	Page     int             `json:"page"` // 0-based
	PageSize int             `json:"page_size"`
}

func DefaultViewState(pageSize int) ViewState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return ViewState{PageSize: pageSize}
}

// Column describes one display column. Compare is optional; columns without
// it sort by Value.
type Column[T any] struct {
	Key     string
	Title   string
	Value   func(T) string
	Compare func(a, b T) int
}

func (c Column[T]) compare(a, b T) int {
	if c.Compare != nil {
		return c.Compare(a, b)
	}
	return strings.Compare(c.Value(a), c.Value(b))
}

// ApplyFilter keeps the items whose field contains text, ignoring case.
// An empty filter returns every item in collection order.
func ApplyFilter[T any](items []T, text string, field func(T) string) []T {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || field == nil {
		return slices.Clone(items)
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(field(item)), text) {
			out = append(out, item)
		}
	}
	return out
}

// ApplySort returns a stably sorted copy. A nil spec or an unknown column
// keeps collection order.
func ApplySort[T any](items []T, spec *SortSpec, columns []Column[T]) []T {
	out := slices.Clone(items)
	if spec == nil {
		return out
	}

	idx := slices.IndexFunc(columns, func(c Column[T]) bool { return c.Key == spec.Column })
	if idx < 0 {
		return out
	}
	column := columns[idx]

	slices.SortStableFunc(out, func(a, b T) int {
		if spec.Direction == SortDesc {
			return column.compare(b, a)
		}
		return column.compare(a, b)
	})
	return out
}

// PageCount is never less than one so an empty table still has page 0
func PageCount(total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage maps any requested page index onto a valid one
func ClampPage(page, total, pageSize int) int {
	last := PageCount(total, pageSize) - 1
	if page > last {
		return last
	}
	if page < 0 {
		return 0
	}
	return page
}

// Paginate returns the slice for page (0-based) and the page index actually used
func Paginate[T any](items []T, page, pageSize int) ([]T, int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page = ClampPage(page, len(items), pageSize)

	start := page * pageSize
	end := min(start+pageSize, len(items))
	if start >= end {
		return []T{}, page
	}
	return items[start:end], page
}
