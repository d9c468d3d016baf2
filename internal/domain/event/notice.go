package event

import "storefront/admin/internal/domain"

const NoticeEventType = "NoticeEvent"

type NoticeEvent struct {
	Notice domain.Notice `json:"notice"`
}

func (e *NoticeEvent) EventType() string {
	return NoticeEventType
}

func (e *NoticeEvent) EventValue() ([]byte, error) {
	return DefaultEventValue(e)
}
