package testutil

import (
	"context"
	"sync/atomic"

	"github.com/yungbote/branchaudit-backend/internal/data/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
)

// FaultyRunner wraps a real TxRunner and fails the transaction after the
// aggregate body has written its rows, so callers can check nothing leaks.
type FaultyRunner struct {
	Inner    aggregates.TxRunner
	FailWith error

	rollbacks atomic.Int32
}

var _ aggregates.TxRunner = (*FaultyRunner)(nil)

func (r *FaultyRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	err := r.Inner.InTx(ctx, func(dbc dbctx.Context) error {
		if err := fn(dbc); err != nil {
			return err
		}
		return r.FailWith
	})
	if err != nil {
		r.rollbacks.Add(1)
	}
	return err
}

func (r *FaultyRunner) Rollbacks() int { return int(r.rollbacks.Load()) }
