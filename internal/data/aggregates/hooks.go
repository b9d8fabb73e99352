package aggregates

import (
	"time"

	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/observability"
)

// WriteEvent describes one finished aggregate write. Code is empty on success.
type WriteEvent struct {
	Op       string
	Code     domainagg.ErrorCode
	Duration time.Duration
}

func (e WriteEvent) Status() string {
	if e.Code == "" {
		return "success"
	}
	return string(e.Code)
}

// Retried reports whether the caller is expected to retry the write.
func (e WriteEvent) Retried() bool {
	return e.Code.Transient()
}

type Hooks interface {
	ObserveWrite(ev WriteEvent)
}

// HooksFunc adapts a plain function to Hooks.
type HooksFunc func(ev WriteEvent)

func (f HooksFunc) ObserveWrite(ev WriteEvent) { f(ev) }

// NewMetricsHooks feeds write events into the store write collectors.
func NewMetricsHooks(m *observability.Metrics) Hooks {
	if m == nil {
		return HooksFunc(func(WriteEvent) {})
	}
	return HooksFunc(func(ev WriteEvent) {
		m.ObserveStoreWrite(ev.Op, ev.Status(), ev.Duration)
		switch {
		case ev.Code == domainagg.CodeConflict:
			m.IncStoreWriteConflict(ev.Op)
		case ev.Retried():
			m.IncStoreWriteRetry(ev.Op)
		}
	})
}
