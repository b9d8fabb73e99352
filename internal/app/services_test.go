package app

import (
	"context"
	"fmt"
	"testing"

	repotest "github.com/yungbote/branchaudit-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
	"github.com/yungbote/branchaudit-backend/internal/observability"
	"github.com/yungbote/branchaudit-backend/internal/platform/lock"
)

func TestWiredAggregatesChargeStoreQuota(t *testing.T) {
	db := repotest.DB(t)
	log := repotest.Logger(t)
	cfg := Config{StoreWriteRPS: 0.001, StoreWriteBurst: 1}

	r := wireRepos(db, log, cfg)
	if r.Quota == nil {
		t.Fatalf("quota not built for STORE_WRITE_RPS=%v", cfg.StoreWriteRPS)
	}
	s := wireServices(db, log, cfg, r, Clients{Locker: lock.NewMemoryLocker()}, observability.NewMetrics())

	ctx := context.Background()
	created, limited := 0, 0
	for i := 0; i < 10; i++ {
		_, err := s.Catalog.Create(ctx, domainagg.CreateQuestionInput{
			QuestionnaireType: "store",
			Text:              fmt.Sprintf("Q%d", i),
			Type:              audit.QuestionTypeText,
		})
		switch {
		case err == nil:
			created++
		case domainagg.IsCode(err, domainagg.CodeRateLimited):
			limited++
		default:
			t.Fatalf("Create(%d): %v", i, err)
		}
	}
	if created != 1 || limited != 9 {
		t.Fatalf("want 1 created and 9 rate limited, got created=%d limited=%d", created, limited)
	}

	list, err := s.Catalog.List(ctx, "store")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].OrderIndex != 0 {
		t.Fatalf("rate-limited creates must not persist: %+v", list)
	}
}
