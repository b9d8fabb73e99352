package audit

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
)

func TestWriteQuotaRejectsOverBurst(t *testing.T) {
	q := NewWriteQuota(0.001, 2)
	if err := q.Take(); err != nil {
		t.Fatalf("first take: %v", err)
	}
	if err := q.Take(); err != nil {
		t.Fatalf("second take: %v", err)
	}
	if err := q.Take(); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("third take: want ErrRateLimited got=%v", err)
	}
}

func TestWriteQuotaNilIsUnlimited(t *testing.T) {
	var q *WriteQuota = NewWriteQuota(0, 0)
	for i := 0; i < 100; i++ {
		if err := q.Take(); err != nil {
			t.Fatalf("nil quota should never limit: %v", err)
		}
	}
}

func TestWriteQuotaSkipsTransactions(t *testing.T) {
	q := NewWriteQuota(0.001, 1)
	_ = q.Take()
	if err := q.charge(dbctx.Context{Tx: &gorm.DB{}}); err != nil {
		t.Fatalf("in-tx writes are charged at begin, got=%v", err)
	}
	if err := q.charge(dbctx.Context{}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("out-of-tx write should be charged, got=%v", err)
	}
}
