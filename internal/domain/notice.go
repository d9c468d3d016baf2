package domain

import "time"

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient user-facing notification. The presentation layer
// decides how to render it.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Table   string      `json:"table"`
	Outcome Outcome     `json:"outcome,omitempty"` // Set for notices that summarize a mutation
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

// NoticeForResult builds the summary notice of a bulk or confirmed operation
func NoticeForResult(table string, result *BulkOperationResult) Notice {
	level := NoticeInfo
	switch result.Outcome() {
	case OutcomePartial:
		level = NoticeWarning
	case OutcomeAllFailed:
		level = NoticeError
	}
	return Notice{
		Level:   level,
		Table:   table,
		Outcome: result.Outcome(),
		Message: result.Summary(),
		At:      time.Now(),
	}
}

// NoticeForError builds a notice for a failed load or lookup
func NoticeForError(table string, err error) Notice {
	return Notice{
		Level:   NoticeError,
		Table:   table,
		Message: UserMessage(err),
		At:      time.Now(),
	}
}
