package aggregates_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/branchaudit-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/branchaudit-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	repotest "github.com/yungbote/branchaudit-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
)

func TestCreateWithSnapshotRollsBackAsOneUnit(t *testing.T) {
	db := repotest.DB(t)
	log := repotest.Logger(t)
	ctx := context.Background()
	repotest.SeedQuestions(t, ctx, db, "store", "A", "B")

	hooks := &aggtest.WriteRecorder{}
	runner := &aggtest.FaultyRunner{
		Inner:    aggregates.NewGormTxRunner(db, nil),
		FailWith: errors.New("disk full"),
	}
	auditRepo := repos.NewAuditRepo(db, log, nil)
	agg := aggregates.NewAuditAggregate(aggregates.AuditAggregateDeps{
		Base:   aggregates.BaseDeps{DB: db, Log: log, Runner: runner, Hooks: hooks},
		Audits: auditRepo,
		Snapshots: aggregates.SnapshotSources{
			Questions: repos.NewQuestionRepo(db, log, nil),
		},
	})

	_, err := agg.CreateWithSnapshot(ctx, domainagg.CreateAuditInput{AuditType: "store", BranchID: "b1"})
	if err == nil {
		t.Fatalf("expected injected failure")
	}
	if runner.Rollbacks() != 1 {
		t.Fatalf("expected rollback, got %d", runner.Rollbacks())
	}
	rows, err := auditRepo.List(dbctx.Of(ctx), repos.AuditListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("no audit may persist without its snapshot, found %d", len(rows))
	}
	if got := hooks.Statuses(); len(got) != 1 || got[0] != string(domainagg.CodeInternal) {
		t.Fatalf("unexpected hook events: %v", got)
	}
}
