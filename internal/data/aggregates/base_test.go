package aggregates

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	repotest "github.com/yungbote/branchaudit-backend/internal/data/repos/testutil"
	types "github.com/yungbote/branchaudit-backend/internal/domain"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
)

type directRunner struct{}

func (directRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	return fn(dbctx.Context{Ctx: ctx})
}

func recordWrites(events *[]WriteEvent) Hooks {
	return HooksFunc(func(ev WriteEvent) { *events = append(*events, ev) })
}

func TestExecuteWriteReportsOutcome(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  string
		retried bool
	}{
		{"success", nil, "success", false},
		{"quota", repos.ErrRateLimited, "rate_limited", true},
		{"coded", domainagg.NewError(domainagg.CodeResponseAlreadySubmitted, "x", "submitted", nil), "response_already_submitted", false},
		{"unknown", errors.New("disk full"), "internal", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var events []WriteEvent
			err := executeWrite(context.Background(), BaseDeps{Runner: directRunner{}, Hooks: recordWrites(&events)},
				" branch_response.submit ", func(dbctx.Context) error { return tc.err })
			if (err == nil) != (tc.err == nil) {
				t.Fatalf("err: %v", err)
			}
			if len(events) != 1 {
				t.Fatalf("want one event, got %d", len(events))
			}
			ev := events[0]
			if ev.Op != "branch_response.submit" || ev.Status() != tc.status || ev.Retried() != tc.retried {
				t.Fatalf("event: %+v status=%s retried=%v", ev, ev.Status(), ev.Retried())
			}
		})
	}
}

func TestExecuteWriteDefaultsOpName(t *testing.T) {
	var events []WriteEvent
	_ = executeWrite(context.Background(), BaseDeps{Runner: directRunner{}, Hooks: recordWrites(&events)}, "", func(dbctx.Context) error { return nil })
	if events[0].Op != "aggregate.write" {
		t.Fatalf("op: %q", events[0].Op)
	}
}

func TestUpdateIfStatusOnlyMatchesSourceStatus(t *testing.T) {
	db := repotest.DB(t)
	log := repotest.Logger(t)
	ctx := context.Background()
	a := repotest.SeedAudit(t, ctx, db, "store", true)
	row, err := repos.NewBranchResponseRepo(db, log, nil).Create(dbctx.Of(ctx), &types.BranchAuditResponse{
		AuditID: a.ID,
		Status:  audit.BranchResponseDraft,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	base := BaseDeps{DB: db}
	submit := map[string]any{"status": string(audit.BranchResponseSubmitted), "submitted_by": "Noa"}
	from := []string{string(audit.BranchResponseDraft)}

	ok, err := base.updateIfStatus(dbctx.Of(ctx), branchResponseTable, row.ID, from, submit)
	if err != nil || !ok {
		t.Fatalf("first transition: ok=%v err=%v", ok, err)
	}
	ok, err = base.updateIfStatus(dbctx.Of(ctx), branchResponseTable, row.ID, from, submit)
	if err != nil || ok {
		t.Fatalf("second transition must not match: ok=%v err=%v", ok, err)
	}
	if _, err := base.updateIfStatus(dbctx.Of(ctx), branchResponseTable, row.ID, nil, submit); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("empty source statuses: want validation, got %v", err)
	}
}
