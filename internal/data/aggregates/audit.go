package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	types "github.com/yungbote/branchaudit-backend/internal/domain"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
)

type AuditAggregateDeps struct {
	Base BaseDeps

	Audits    repos.AuditRepo
	Responses repos.AuditorResponseRepo
	Snapshots SnapshotSources
}

type auditAggregate struct {
	deps AuditAggregateDeps
}

func NewAuditAggregate(deps AuditAggregateDeps) domainagg.AuditAggregate {
	deps.Base = deps.Base.withDefaults()
	return &auditAggregate{deps: deps}
}

func (a *auditAggregate) Contract() domainagg.Contract {
	return domainagg.AuditAggregateContract
}

func (a *auditAggregate) CreateWithSnapshot(ctx context.Context, in domainagg.CreateAuditInput) (*audit.Audit, error) {
	op := domainagg.AuditAggregateContract.Op("create_with_snapshot")
	auditType := strings.TrimSpace(in.AuditType)
	branchID := strings.TrimSpace(in.BranchID)
	if auditType == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing audit_type", nil)
	}
	if branchID == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing branch_id", nil)
	}
	if a.deps.Audits == nil || a.deps.Snapshots.Questions == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "audit aggregate repos not configured", nil)
	}

	now := time.Now().UTC()
	auditDate := in.AuditDate.UTC()
	if in.AuditDate.IsZero() {
		auditDate = now
	}

	var out *audit.Audit
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		snap, err := a.deps.Snapshots.Capture(dbc, auditType, now)
		if err != nil {
			return err
		}
		raw, err := encodeSnapshot(snap)
		if err != nil {
			return err
		}
		created, err := a.deps.Audits.Create(dbc, []*types.Audit{{
			AuditType:             auditType,
			BranchID:              branchID,
			AuditDate:             auditDate,
			AuditorName:           strings.TrimSpace(in.AuditorName),
			OverallScore:          in.OverallScore,
			QuestionnaireSnapshot: raw,
			ResponseRequired:      in.ResponseRequired,
			CreatedBy:             strings.TrimSpace(in.CreatedBy),
		}})
		if err != nil {
			return err
		}
		out = created[0]
		return nil
	})
	return out, err
}

func (a *auditAggregate) SaveAuditorResponse(ctx context.Context, in domainagg.SaveAuditorResponseInput) (*audit.AuditorResponse, error) {
	op := domainagg.AuditAggregateContract.Op("save_auditor_response")
	if in.AuditID == uuid.Nil || in.QuestionID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "audit_id and question_id are required", nil)
	}
	if a.deps.Audits == nil || a.deps.Responses == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "audit aggregate repos not configured", nil)
	}

	var out *audit.AuditorResponse
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := a.deps.Audits.GetByID(dbc, in.AuditID)
		if err != nil {
			return err
		}
		if row == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("audit not found: %s", in.AuditID), nil)
		}
		snap, err := a.deps.Snapshots.Resolve(dbc, row)
		if err != nil {
			return err
		}
		q, ok := snap.Question(in.QuestionID)
		if !ok {
			return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("question %s is not part of this audit", in.QuestionID), nil)
		}
		if q.Type.IsHeader() {
			return domainagg.NewError(domainagg.CodeValidation, op, "header entries do not take responses", nil)
		}
		out, err = a.deps.Responses.Upsert(dbc, &types.AuditorResponse{
			AuditID:       row.ID,
			QuestionID:    q.ID,
			ResponseValue: strings.TrimSpace(in.ResponseValue),
			FileURLs:      cleanStrings(in.FileURLs),
		})
		return err
	})
	return out, err
}
