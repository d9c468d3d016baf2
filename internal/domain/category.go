package domain

type Category struct {
	ID     string `json:"_id"`
	Title  string `json:"title"`
	Slug   string `json:"slug,omitempty"`
	Parent *Ref   `json:"parent"` // nil for top-level categories
	Timestamps
}

// ParentID returns the parent id or an empty string for top-level categories
func (c Category) ParentID() string {
	if c.Parent == nil {
		return ""
	}
	return c.Parent.ID
}

// Children returns the categories in all whose parent is c
func (c Category) Children(all []Category) []Category {
	var children []Category
	for _, candidate := range all {
		if candidate.ParentID() == c.ID && candidate.ID != c.ID {
			children = append(children, candidate)
		}
	}
	return children
}
