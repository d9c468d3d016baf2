package event

import (
	"time"

	"storefront/admin/internal/domain"
)

const OperationEventType = "OperationEvent"

// OperationEvent records a confirmed destructive operation and how it ended
type OperationEvent struct {
	RequestID string                      `json:"request_id"`
	Table     string                      `json:"table"`
	Kind      domain.OperationKind        `json:"kind"`
	Decision  string                      `json:"decision,omitempty"` // cascade or reparent, empty without dependents
	Targets   []string                    `json:"targets"`
	Result    *domain.BulkOperationResult `json:"result"`
	At        time.Time                   `json:"at"`
}

func (e *OperationEvent) EventType() string {
	return OperationEventType
}

func (e *OperationEvent) EventValue() ([]byte, error) {
	return DefaultEventValue(e)
}
