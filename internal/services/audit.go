package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	dataagg "github.com/yungbote/branchaudit-backend/internal/data/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	types "github.com/yungbote/branchaudit-backend/internal/domain"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/observability"
	"github.com/yungbote/branchaudit-backend/internal/platform/ctxutil"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

// AuditView is an audit together with the snapshot it renders from.
type AuditView struct {
	Audit    *types.Audit                 `json:"audit"`
	Snapshot *types.QuestionnaireSnapshot `json:"snapshot"`
}

type CreateAuditRequest struct {
	AuditType        string    `json:"audit_type"`
	BranchID         string    `json:"branch_id"`
	AuditDate        time.Time `json:"audit_date"`
	AuditorName      string    `json:"auditor_name"`
	OverallScore     float64   `json:"overall_score"`
	ResponseRequired bool      `json:"response_required"`
}

type AuditService interface {
	Create(ctx context.Context, req CreateAuditRequest) (*AuditView, error)
	Get(ctx context.Context, id uuid.UUID) (*AuditView, error)
	List(ctx context.Context, filter repos.AuditListFilter) ([]*types.Audit, error)
	// Snapshot resolves the questionnaire an audit renders from. Audits that
	// predate snapshotting get a reconstruction that is never persisted.
	Snapshot(ctx context.Context, a *types.Audit) (*types.QuestionnaireSnapshot, error)
}

type auditService struct {
	log       *logger.Logger
	audits    repos.AuditRepo
	sources   dataagg.SnapshotSources
	aggregate domainagg.AuditAggregate
}

func NewAuditService(log *logger.Logger, audits repos.AuditRepo, sources dataagg.SnapshotSources, aggregate domainagg.AuditAggregate) AuditService {
	return &auditService{
		log:       log.With("service", "AuditService"),
		audits:    audits,
		sources:   sources,
		aggregate: aggregate,
	}
}

func (s *auditService) Create(ctx context.Context, req CreateAuditRequest) (*AuditView, error) {
	ctx, span := observability.StartSpan(ctx, "audit.create", "audit_type", req.AuditType)
	defer span.End()

	a, err := s.aggregate.CreateWithSnapshot(ctx, domainagg.CreateAuditInput{
		AuditType:        req.AuditType,
		BranchID:         req.BranchID,
		AuditDate:        req.AuditDate,
		AuditorName:      req.AuditorName,
		OverallScore:     req.OverallScore,
		ResponseRequired: req.ResponseRequired,
		CreatedBy:        ctxutil.Actor(ctx),
	})
	if err != nil {
		return nil, err
	}
	snap, err := a.Snapshot()
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, "audit.create", err)
	}
	s.log.Info("audit created", "audit_id", a.ID, "audit_type", a.AuditType, "questions", len(snap.Questions))
	return &AuditView{Audit: a, Snapshot: snap}, nil
}

func (s *auditService) Get(ctx context.Context, id uuid.UUID) (*AuditView, error) {
	a, err := s.load(ctx, "audit.get", id)
	if err != nil {
		return nil, err
	}
	snap, err := s.Snapshot(ctx, a)
	if err != nil {
		return nil, err
	}
	return &AuditView{Audit: a, Snapshot: snap}, nil
}

func (s *auditService) load(ctx context.Context, op string, id uuid.UUID) (*types.Audit, error) {
	if id == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "audit id is required", nil)
	}
	a, err := s.audits.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if a == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "audit not found", nil)
	}
	return a, nil
}

func (s *auditService) List(ctx context.Context, filter repos.AuditListFilter) ([]*types.Audit, error) {
	out, err := s.audits.List(dbctx.Context{Ctx: ctx}, filter)
	if err != nil {
		return nil, dataagg.MapError("audit.list", err)
	}
	return out, nil
}

func (s *auditService) Snapshot(ctx context.Context, a *types.Audit) (*types.QuestionnaireSnapshot, error) {
	snap, err := s.sources.Resolve(dbctx.Context{Ctx: ctx}, a)
	if err != nil {
		return nil, dataagg.MapError("audit.snapshot", err)
	}
	if snap.Reconstructed {
		s.log.Warn("audit has no stored snapshot; rendering from live catalog", "audit_id", a.ID, "audit_type", a.AuditType)
	}
	return snap, nil
}
