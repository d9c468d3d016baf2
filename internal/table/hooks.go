package table

import (
	"context"

	"storefront/admin/internal/domain"
	"storefront/admin/internal/domain/event"

	log "github.com/sirupsen/logrus"
)

// Notifier delivers user-facing notices
type Notifier interface {
	Notify(ctx context.Context, notice domain.Notice) error
}

// Auditor records confirmed destructive operations
type Auditor interface {
	RecordOperation(ctx context.Context, op *event.OperationEvent) error
}

// ViewStore persists view state between sessions. LoadView returns nil
// without error when nothing was saved.
type ViewStore interface {
	LoadView(ctx context.Context, table string) (*ViewState, error)
	SaveView(ctx context.Context, table string, view ViewState) error
}

// LogNotifier writes notices to the standard logger
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, notice domain.Notice) error {
	entry := log.WithFields(log.Fields{"table": notice.Table, "outcome": notice.Outcome})
	switch notice.Level {
	case domain.NoticeError:
		entry.Errorf("❌ %s", notice.Message)
	case domain.NoticeWarning:
		entry.Warnf("⚠️ %s", notice.Message)
	default:
		entry.Infof("✅ %s", notice.Message)
	}
	return nil
}

// MultiNotifier fans a notice out to several notifiers and returns the first error
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, notice domain.Notice) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, notice); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// MultiAuditor records an operation with every auditor and returns the first error
type MultiAuditor []Auditor

func (m MultiAuditor) RecordOperation(ctx context.Context, op *event.OperationEvent) error {
	var first error
	for _, a := range m {
		if err := a.RecordOperation(ctx, op); err != nil && first == nil {
			first = err
		}
	}
	return first
}
