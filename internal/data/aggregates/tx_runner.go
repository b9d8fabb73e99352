package aggregates

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
)

// TxRunner opens the transaction an aggregate write runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db    *gorm.DB
	quota *repos.WriteQuota
}

// NewGormTxRunner charges one quota unit per transaction; a nil quota never
// refuses.
func NewGormTxRunner(db *gorm.DB, quota *repos.WriteQuota) TxRunner {
	return gormTxRunner{db: db, quota: quota}
}

func (r gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "no database handle", nil)
	}
	if err := r.quota.Take(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if fn == nil {
			return nil
		}
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
