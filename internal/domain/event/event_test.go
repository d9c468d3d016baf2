package event

import (
	"testing"

	"storefront/admin/internal/domain"
)

func TestUnmarshalEvent_Operation(t *testing.T) {
	op := &OperationEvent{
		RequestID: "r1",
		Table:     "categories",
		Kind:      domain.OperationDelete,
		Decision:  "cascade",
		Targets:   []string{"A"},
		Result:    &domain.BulkOperationResult{Attempted: 3, Succeeded: 3, Deleted: []string{"A", "B", "C"}},
	}
	data, err := op.EventValue()
	if err != nil {
		t.Fatal(err)
	}

	got, err := UnmarshalEvent[*OperationEvent](data)
	if err != nil {
		t.Fatalf("UnmarshalEvent() error = %v", err)
	}
	if got.EventType() != OperationEventType || got.Decision != "cascade" || got.Result.Summary() != "deleted 3" {
		t.Errorf("event = %+v", got)
	}
}

func TestTypes(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range []Event{&NoticeEvent{}, &OperationEvent{}} {
		seen[e.EventType()] = true
	}
	for _, name := range Types {
		if !seen[name] {
			t.Errorf("stream type %s has no event", name)
		}
	}
	if len(Types) != len(seen) {
		t.Errorf("Types = %v", Types)
	}
}
