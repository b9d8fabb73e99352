package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

// BaseDeps is shared by every aggregate. Runner and Hooks are optional;
// a zero Runner opens gorm transactions on DB charged against Quota.
type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Quota  *repos.WriteQuota
	Runner TxRunner
	Hooks  Hooks
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB, d.Quota)
	}
	if d.Hooks == nil {
		d.Hooks = HooksFunc(func(WriteEvent) {})
	}
	return d
}

// executeWrite runs fn in one transaction and returns a coded error.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	if op = strings.TrimSpace(op); op == "" {
		op = "aggregate.write"
	}

	start := time.Now()
	err := MapError(op, deps.Runner.InTx(ctx, fn))
	ev := WriteEvent{Op: op, Duration: time.Since(start)}
	if err != nil {
		ev.Code = domainagg.CodeOf(err)
		if ev.Code == domainagg.CodeInternal {
			deps.Log.Warn("aggregate write failed", "op", op, "error", err)
		}
	}
	deps.Hooks.ObserveWrite(ev)
	return err
}

// updateIfStatus applies updates to the row only while its status is one of
// from, and reports whether the row still matched.
func (d BaseDeps) updateIfStatus(dbc dbctx.Context, table string, id uuid.UUID, from []string, updates map[string]any) (bool, error) {
	if dbc.Tx == nil && d.DB == nil {
		return false, domainagg.NewError(domainagg.CodeInternal, "aggregate.update_if_status", "no database handle", nil)
	}
	if id == uuid.Nil || len(from) == 0 {
		return false, domainagg.NewError(domainagg.CodeValidation, "aggregate.update_if_status", "id and source statuses are required", nil)
	}
	res := dbc.DB(d.DB).Table(table).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
