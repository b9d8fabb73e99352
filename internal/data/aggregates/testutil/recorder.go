package testutil

import (
	"sync"

	"github.com/yungbote/branchaudit-backend/internal/data/aggregates"
)

// WriteRecorder keeps every write event an aggregate reports.
type WriteRecorder struct {
	mu     sync.Mutex
	events []aggregates.WriteEvent
}

var _ aggregates.Hooks = (*WriteRecorder)(nil)

func (r *WriteRecorder) ObserveWrite(ev aggregates.WriteEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *WriteRecorder) Events() []aggregates.WriteEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]aggregates.WriteEvent(nil), r.events...)
}

// Statuses lists the recorded outcomes in order.
func (r *WriteRecorder) Statuses() []string {
	var out []string
	for _, ev := range r.Events() {
		out = append(out, ev.Status())
	}
	return out
}
