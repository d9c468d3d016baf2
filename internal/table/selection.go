package table

import "slices"

type CheckState int

const (
	CheckNone CheckState = iota
	CheckSome            // indeterminate
	CheckAll
)

func (s CheckState) String() string {
	switch s {
	case CheckAll:
		return "all"
	case CheckSome:
		return "some"
	default:
		return "none"
	}
}

// Selection is the set of selected row ids. It is not safe for concurrent use.
type Selection struct {
	ids map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids sorted
func (s *Selection) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Toggle flips one id and reports whether it is now selected
func (s *Selection) Toggle(id string) bool {
	if s.Has(id) {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *Selection) Select(ids ...string) {
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) Remove(ids ...string) {
	for _, id := range ids {
		delete(s.ids, id)
	}
}

func (s *Selection) Clear() {
	clear(s.ids)
}

// Retain drops every id for which keep returns false and returns how many were dropped
func (s *Selection) Retain(keep func(id string) bool) int {
	dropped := 0
	for id := range s.ids {
		if !keep(id) {
			delete(s.ids, id)
			dropped++
		}
	}
	return dropped
}

// State reports how much of ids is selected
func (s *Selection) State(ids []string) CheckState {
	selected := 0
	for _, id := range ids {
		if s.Has(id) {
			selected++
		}
	}
	switch {
	case selected == 0:
		return CheckNone
	case selected == len(ids):
		return CheckAll
	default:
		return CheckSome
	}
}

// ToggleAll deselects ids when all of them are selected, otherwise selects them all
func (s *Selection) ToggleAll(ids []string) CheckState {
	if len(ids) > 0 && s.State(ids) == CheckAll {
		s.Remove(ids...)
		return CheckNone
	}
	s.Select(ids...)
	return s.State(ids)
}

// ToggleAllOnPage applies ToggleAll to the rows of the visible page only
func (s *Selection) ToggleAllOnPage(pageIDs []string) CheckState {
	return s.ToggleAll(pageIDs)
}

// ToggleAllFiltered applies ToggleAll to every row that passes the filter
func (s *Selection) ToggleAllFiltered(filteredIDs []string) CheckState {
	return s.ToggleAll(filteredIDs)
}
