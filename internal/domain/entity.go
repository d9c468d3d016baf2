package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamps are carried by every backend record
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Ref is a reference to another record. The backend sends references either
// as a bare id string or as a populated object; both decode into a Ref.
type Ref struct {
	ID    string `json:"_id"`
	Label string `json:"label,omitempty"` // Title or name of the populated object, empty for bare ids
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*r = Ref{}
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("failed to decode reference id: %w", err)
		}
		*r = Ref{ID: id}
		return nil
	}

	var populated struct {
		ID    string `json:"_id"`
		Title string `json:"title"`
		Name  string `json:"name"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal(data, &populated); err != nil {
		return fmt.Errorf("failed to decode populated reference: %w", err)
	}

	label := populated.Label
	if label == "" {
		label = populated.Title
	}
	if label == "" {
		label = populated.Name
	}

	*r = Ref{ID: populated.ID, Label: label}
	return nil
}

// String returns the label when the reference was populated, the id otherwise
func (r Ref) String() string {
	if r.Label != "" {
		return r.Label
	}
	return r.ID
}

// JoinRefs renders a list of references for display
func JoinRefs(refs []Ref) string {
	parts := make([]string, 0, len(refs))
	for _, ref := range refs {
		parts = append(parts, ref.String())
	}
	return strings.Join(parts, ", ")
}
