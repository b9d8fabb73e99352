package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	types "github.com/yungbote/branchaudit-backend/internal/domain"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
)

var branchResponseTable = audit.BranchAuditResponse{}.TableName()

type BranchResponseAggregateDeps struct {
	Base BaseDeps

	Audits    repos.AuditRepo
	Responses repos.BranchResponseRepo
	Snapshots SnapshotSources
}

type branchResponseAggregate struct {
	deps BranchResponseAggregateDeps
}

func NewBranchResponseAggregate(deps BranchResponseAggregateDeps) domainagg.BranchResponseAggregate {
	deps.Base = deps.Base.withDefaults()
	return &branchResponseAggregate{deps: deps}
}

func (a *branchResponseAggregate) Contract() domainagg.Contract {
	return domainagg.BranchResponseAggregateContract
}

func (a *branchResponseAggregate) SaveDraft(ctx context.Context, in domainagg.SaveBranchResponseInput) (*audit.BranchAuditResponse, error) {
	return a.write(ctx, domainagg.BranchResponseAggregateContract.Op("save_draft"), in, false)
}

func (a *branchResponseAggregate) Submit(ctx context.Context, in domainagg.SaveBranchResponseInput) (*audit.BranchAuditResponse, error) {
	return a.write(ctx, domainagg.BranchResponseAggregateContract.Op("submit"), in, true)
}

func (a *branchResponseAggregate) write(ctx context.Context, op string, in domainagg.SaveBranchResponseInput, submit bool) (*audit.BranchAuditResponse, error) {
	if in.AuditID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing audit_id", nil)
	}
	actor := strings.TrimSpace(in.Actor)
	if a.deps.Audits == nil || a.deps.Responses == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "branch response aggregate repos not configured", nil)
	}

	var out *audit.BranchAuditResponse
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := a.deps.Audits.GetByID(dbc, in.AuditID)
		if err != nil {
			return err
		}
		if row == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("audit not found: %s", in.AuditID), nil)
		}
		if !row.ResponseRequired {
			return domainagg.NewError(domainagg.CodeResponseNotRequired, op, "this audit does not require a branch response", nil)
		}
		// a submitted response is terminal, whatever the payload
		cur, err := a.deps.Responses.GetByAudit(dbc, row.ID)
		if err != nil {
			return err
		}
		if cur.IsSubmitted() {
			return alreadySubmitted(op)
		}

		if submit && actor == "" {
			return domainagg.NewError(domainagg.CodeValidation, op, "missing submitting user", nil)
		}
		snap, err := a.deps.Snapshots.Resolve(dbc, row)
		if err != nil {
			return err
		}
		for qid, item := range in.Items {
			if !item.Status.Valid() {
				return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("invalid status %q for question %s", item.Status, qid), nil)
			}
			q, ok := snap.Question(qid)
			if !ok {
				return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("question %s is not part of this audit", qid), nil)
			}
			if q.Type.IsHeader() {
				return domainagg.NewError(domainagg.CodeValidation, op, "header entries do not take responses", nil)
			}
		}

		now := time.Now().UTC()
		items := mergeBranchItems(cur.Items(), in.Items)
		if cur == nil {
			next := &types.BranchAuditResponse{
				AuditID:             row.ID,
				Status:              audit.BranchResponseDraft,
				ResponsesByQuestion: datatypes.NewJSONType(items),
			}
			if submit {
				next.Status = audit.BranchResponseSubmitted
				next.SubmittedBy = actor
				next.SubmittedAt = &now
			}
			out, err = a.deps.Responses.Create(dbc, next)
			return err
		}

		updates := map[string]any{
			"responses_by_question": datatypes.NewJSONType(items),
			"updated_at":            now,
		}
		if submit {
			updates["status"] = string(audit.BranchResponseSubmitted)
			updates["submitted_by"] = actor
			updates["submitted_at"] = now
		}
		ok, err := a.deps.Base.updateIfStatus(dbc, branchResponseTable, cur.ID, []string{string(audit.BranchResponseDraft)}, updates)
		if err != nil {
			return err
		}
		if !ok {
			return alreadySubmitted(op)
		}
		out, err = a.deps.Responses.GetByAudit(dbc, row.ID)
		return err
	})
	return out, err
}

func alreadySubmitted(op string) error {
	return domainagg.NewError(domainagg.CodeResponseAlreadySubmitted, op, "branch response was already submitted", nil)
}

func mergeBranchItems(cur, in audit.BranchResponseItems) audit.BranchResponseItems {
	out := make(audit.BranchResponseItems, len(cur)+len(in))
	for k, v := range cur {
		out[k] = v
	}
	for k, v := range in {
		v.Comment = strings.TrimSpace(v.Comment)
		v.FileURLs = cleanStrings(v.FileURLs)
		out[k] = v
	}
	return out
}
