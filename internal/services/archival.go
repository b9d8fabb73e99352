package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dataagg "github.com/yungbote/branchaudit-backend/internal/data/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	types "github.com/yungbote/branchaudit-backend/internal/domain"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
	"github.com/yungbote/branchaudit-backend/internal/observability"
	"github.com/yungbote/branchaudit-backend/internal/platform/ctxutil"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
	"github.com/yungbote/branchaudit-backend/internal/platform/lock"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

// Cascade steps named in ArchivalFailure.Step.
const (
	StepMarkDerived           = "mark_derived"
	StepDeleteAuditorResponse = "delete_auditor_response"
	StepDeleteBranchResponse  = "delete_branch_response"
)

type ArchivalFailure struct {
	Step     string                `json:"step"`
	Category types.DerivedCategory `json:"category,omitempty"`
	RowID    uuid.UUID             `json:"row_id,omitempty"`
	Error    string                `json:"error"`
}

// ArchivalReport describes one audit deletion. Partial is true when the audit
// was removed but some cascade rows could not be updated or deleted.
type ArchivalReport struct {
	AuditID                 uuid.UUID               `json:"audit_id"`
	AlreadyDeleted          bool                    `json:"already_deleted"`
	ArchiveID               uuid.UUID               `json:"archive_id,omitempty"`
	DerivedArchived         []types.DerivedAuditRef `json:"derived_archived"`
	AuditorResponsesDeleted int                     `json:"auditor_responses_deleted"`
	BranchResponseDeleted   bool                    `json:"branch_response_deleted"`
	Partial                 bool                    `json:"partial"`
	Failures                []ArchivalFailure       `json:"failures"`
}

// auditArchivePayload is the JSON stored in archived_item.payload.
type auditArchivePayload struct {
	Audit            *types.Audit               `json:"audit"`
	AuditorResponses []*types.AuditorResponse   `json:"auditor_responses"`
	BranchResponse   *types.BranchAuditResponse `json:"branch_response,omitempty"`
}

type ArchivalService interface {
	DeleteAudit(ctx context.Context, auditID uuid.UUID) (*ArchivalReport, error)
	ListArchived(ctx context.Context, itemType string, limit int) ([]*types.ArchivedItem, error)
}

type ArchivalServiceDeps struct {
	Audits    repos.AuditRepo
	Auditor   repos.AuditorResponseRepo
	Branch    repos.BranchResponseRepo
	Derived   repos.DerivedAuditRepo
	Archive   repos.ArchiveRepo
	Locker    lock.Locker
	Metrics   *observability.Metrics
	LockTTL   time.Duration
	Categories []types.DerivedCategory
}

type archivalService struct {
	log  *logger.Logger
	deps ArchivalServiceDeps
}

func NewArchivalService(log *logger.Logger, deps ArchivalServiceDeps) ArchivalService {
	if deps.LockTTL <= 0 {
		deps.LockTTL = time.Minute
	}
	if len(deps.Categories) == 0 {
		deps.Categories = audit.DerivedCategories()
	}
	return &archivalService{log: log.With("service", "ArchivalService"), deps: deps}
}

func (s *archivalService) DeleteAudit(ctx context.Context, auditID uuid.UUID) (*ArchivalReport, error) {
	const op = "audit.delete"
	if auditID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "audit id is required", nil)
	}
	ctx, span := observability.StartSpan(ctx, op, "audit_id", auditID.String())
	defer span.End()

	lease, err := s.deps.Locker.Acquire(ctx, "audit-delete:"+auditID.String(), "archiving", s.deps.LockTTL)
	if errors.Is(err, lock.ErrHeld) {
		return nil, domainagg.NewError(domainagg.CodeDeleteInProgress, op, "audit deletion already running", nil)
	}
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	defer func() {
		if rerr := s.deps.Locker.Release(context.WithoutCancel(ctx), lease); rerr != nil && !errors.Is(rerr, lock.ErrNotHeld) {
			s.log.Warn("audit delete lock release failed", "audit_id", auditID, "error", rerr)
		}
	}()

	report := &ArchivalReport{AuditID: auditID, DerivedArchived: []types.DerivedAuditRef{}, Failures: []ArchivalFailure{}}
	dbc := dbctx.Context{Ctx: ctx}

	row, err := s.deps.Audits.GetByID(dbc, auditID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if row == nil {
		report.AlreadyDeleted = true
		s.deps.Metrics.IncArchivalOutcome("already_deleted")
		return report, nil
	}

	// 1. durable archive copy; nothing destructive happens unless this succeeds
	auditorRows, err := s.deps.Auditor.ListByAudit(dbc, auditID)
	if err != nil {
		return s.archivalFailed(report, err)
	}
	branchRow, err := s.deps.Branch.GetByAudit(dbc, auditID)
	if err != nil {
		return s.archivalFailed(report, err)
	}
	payload, err := json.Marshal(auditArchivePayload{Audit: row, AuditorResponses: auditorRows, BranchResponse: branchRow})
	if err != nil {
		return s.archivalFailed(report, err)
	}
	archived, err := s.deps.Archive.Create(dbc, &types.ArchivedItem{
		ItemType:   audit.ArchivedItemTypeAudit,
		OriginalID: auditID,
		DeletedBy:  ctxutil.Actor(ctx),
		Payload:    datatypes.JSON(payload),
	})
	if err != nil {
		return s.archivalFailed(report, err)
	}
	report.ArchiveID = archived.ID

	// 2. every derived row in every category, all-settled
	s.markDerived(ctx, auditID, report)

	// 3. overlays
	for _, r := range auditorRows {
		if err := s.deps.Auditor.DeleteByID(dbc, r.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			report.Failures = append(report.Failures, ArchivalFailure{Step: StepDeleteAuditorResponse, RowID: r.ID, Error: err.Error()})
			s.deps.Metrics.AddArchivalFailures(StepDeleteAuditorResponse, 1)
			continue
		}
		report.AuditorResponsesDeleted++
	}
	if branchRow != nil {
		if err := s.deps.Branch.DeleteByID(dbc, branchRow.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			report.Failures = append(report.Failures, ArchivalFailure{Step: StepDeleteBranchResponse, RowID: branchRow.ID, Error: err.Error()})
			s.deps.Metrics.AddArchivalFailures(StepDeleteBranchResponse, 1)
		} else {
			report.BranchResponseDeleted = true
		}
	}

	// 4. the audit itself
	if err := s.deps.Audits.FullDeleteByID(dbc, auditID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.deps.Metrics.IncArchivalOutcome("failed")
		s.log.Error("audit delete failed after archival", "audit_id", auditID, "archive_id", report.ArchiveID, "error", err)
		return report, dataagg.MapError(op, err)
	}

	report.Partial = len(report.Failures) > 0
	outcome := "complete"
	if report.Partial {
		outcome = "partial"
	}
	s.deps.Metrics.IncArchivalOutcome(outcome)
	s.log.For(ctx).Info("audit archived and deleted",
		"audit_id", auditID,
		"archive_id", report.ArchiveID,
		"deleted_by", archived.DeletedBy,
		"derived_archived", len(report.DerivedArchived),
		"failures", len(report.Failures),
	)
	return report, nil
}

func (s *archivalService) archivalFailed(report *ArchivalReport, err error) (*ArchivalReport, error) {
	s.deps.Metrics.IncArchivalOutcome("archive_failed")
	s.log.Error("audit archival failed; nothing deleted", "audit_id", report.AuditID, "error", err)
	return nil, domainagg.NewError(domainagg.CodeArchivalFailure, "audit.delete", "could not archive audit before deletion", err)
}

// markDerived scans the categories concurrently. Failures are recorded on the
// report and never stop the other categories or rows; only cancellation of
// ctx does.
func (s *archivalService) markDerived(ctx context.Context, auditID uuid.UUID, report *ArchivalReport) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	fail := func(f ArchivalFailure) {
		mu.Lock()
		report.Failures = append(report.Failures, f)
		mu.Unlock()
		s.deps.Metrics.AddArchivalFailures(StepMarkDerived, 1)
		s.log.Warn("derived audit not archived", "audit_id", auditID, "category", f.Category, "row_id", f.RowID, "error", f.Error)
	}
	for _, cat := range s.deps.Categories {
		g.Go(func() error {
			dbc := dbctx.Context{Ctx: gctx}
			rows, err := s.deps.Derived.ListByOriginal(dbc, cat, auditID)
			if err != nil {
				fail(ArchivalFailure{Step: StepMarkDerived, Category: cat, Error: err.Error()})
				return nil
			}
			for _, r := range rows {
				if err := gctx.Err(); err != nil {
					fail(ArchivalFailure{Step: StepMarkDerived, Category: cat, RowID: r.ID, Error: err.Error()})
					continue
				}
				if err := s.deps.Derived.SetOriginalStatus(dbc, r.Ref(), types.OriginalAuditArchived); err != nil {
					fail(ArchivalFailure{Step: StepMarkDerived, Category: cat, RowID: r.ID, Error: err.Error()})
					continue
				}
				mu.Lock()
				report.DerivedArchived = append(report.DerivedArchived, r.Ref())
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *archivalService) ListArchived(ctx context.Context, itemType string, limit int) ([]*types.ArchivedItem, error) {
	out, err := s.deps.Archive.List(dbctx.Context{Ctx: ctx}, itemType, limit)
	if err != nil {
		return nil, dataagg.MapError("archive.list", err)
	}
	return out, nil
}
