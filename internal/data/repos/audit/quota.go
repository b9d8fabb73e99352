package audit

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
)

// ErrRateLimited is returned when the store's write quota is exhausted.
var ErrRateLimited = errors.New("store rate limited")

// WriteQuota models the request quota of the remote store. Writes issued
// outside a transaction are charged one token each; a transaction is charged
// once when it begins.
type WriteQuota struct {
	limiter *rate.Limiter
}

// NewWriteQuota returns nil (unlimited) when perSecond <= 0.
func NewWriteQuota(perSecond float64, burst int) *WriteQuota {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &WriteQuota{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Take charges one token or fails fast with ErrRateLimited.
func (q *WriteQuota) Take() error {
	if q == nil || q.limiter == nil {
		return nil
	}
	r := q.limiter.Reserve()
	if !r.OK() {
		return ErrRateLimited
	}
	if d := r.Delay(); d > 0 {
		r.Cancel()
		return fmt.Errorf("%w: retry after %s", ErrRateLimited, d.Round(time.Millisecond))
	}
	return nil
}

func (q *WriteQuota) charge(dbc dbctx.Context) error {
	if dbc.Tx != nil {
		return nil
	}
	return q.Take()
}
