package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	dataagg "github.com/yungbote/branchaudit-backend/internal/data/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	types "github.com/yungbote/branchaudit-backend/internal/domain"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type CreateDerivedAuditRequest struct {
	OriginalAuditID uuid.UUID       `json:"original_audit_id"`
	AuditDate       time.Time       `json:"audit_date"`
	Summary         string          `json:"summary"`
	Findings        json.RawMessage `json:"findings,omitempty"`
}

type DerivedAuditService interface {
	Create(ctx context.Context, cat types.DerivedCategory, req CreateDerivedAuditRequest) (*types.DerivedComplianceAudit, error)
	List(ctx context.Context, cat types.DerivedCategory, branchID string) ([]*types.DerivedComplianceAudit, error)
	ListForAudit(ctx context.Context, auditID uuid.UUID) ([]*types.DerivedComplianceAudit, error)
}

type derivedAuditService struct {
	log     *logger.Logger
	audits  repos.AuditRepo
	derived repos.DerivedAuditRepo
}

func NewDerivedAuditService(log *logger.Logger, audits repos.AuditRepo, derived repos.DerivedAuditRepo) DerivedAuditService {
	return &derivedAuditService{
		log:     log.With("service", "DerivedAuditService"),
		audits:  audits,
		derived: derived,
	}
}

func requireCategory(op string, cat types.DerivedCategory) error {
	if !cat.Valid() {
		return domainagg.NewError(domainagg.CodeValidation, op, "unknown derived audit category: "+string(cat), nil)
	}
	return nil
}

// Create records a compliance audit spun off from a live source audit. Branch
// is inherited from the source.
func (s *derivedAuditService) Create(ctx context.Context, cat types.DerivedCategory, req CreateDerivedAuditRequest) (*types.DerivedComplianceAudit, error) {
	const op = "derived_audit.create"
	if err := requireCategory(op, cat); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	src, err := s.audits.GetByID(dbc, req.OriginalAuditID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if src == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "original audit not found", nil)
	}
	auditDate := req.AuditDate.UTC()
	if req.AuditDate.IsZero() {
		auditDate = time.Now().UTC()
	}
	row := &types.DerivedComplianceAudit{
		OriginalAuditID: src.ID,
		BranchID:        src.BranchID,
		AuditDate:       auditDate,
		Summary:         strings.TrimSpace(req.Summary),
	}
	if len(req.Findings) > 0 {
		if !json.Valid(req.Findings) {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "findings must be valid JSON", nil)
		}
		row.Findings = datatypes.JSON(req.Findings)
	}
	out, err := s.derived.Create(dbc, cat, row)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return out, nil
}

func (s *derivedAuditService) List(ctx context.Context, cat types.DerivedCategory, branchID string) ([]*types.DerivedComplianceAudit, error) {
	const op = "derived_audit.list"
	if err := requireCategory(op, cat); err != nil {
		return nil, err
	}
	out, err := s.derived.List(dbctx.Context{Ctx: ctx}, cat, strings.TrimSpace(branchID))
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return out, nil
}

func (s *derivedAuditService) ListForAudit(ctx context.Context, auditID uuid.UUID) ([]*types.DerivedComplianceAudit, error) {
	const op = "derived_audit.list_for_audit"
	dbc := dbctx.Context{Ctx: ctx}
	out := []*types.DerivedComplianceAudit{}
	for _, cat := range types.DerivedCategories() {
		rows, err := s.derived.ListByOriginal(dbc, cat, auditID)
		if err != nil {
			return nil, dataagg.MapError(op, err)
		}
		out = append(out, rows...)
	}
	return out, nil
}
