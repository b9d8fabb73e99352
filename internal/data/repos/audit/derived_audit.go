package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/branchaudit-backend/internal/domain"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

// DerivedAuditRepo serves every derived compliance category; the category
// selects the table.
type DerivedAuditRepo interface {
	Create(dbc dbctx.Context, cat types.DerivedCategory, row *types.DerivedComplianceAudit) (*types.DerivedComplianceAudit, error)

	ListByOriginal(dbc dbctx.Context, cat types.DerivedCategory, originalAuditID uuid.UUID) ([]*types.DerivedComplianceAudit, error)
	List(dbc dbctx.Context, cat types.DerivedCategory, branchID string) ([]*types.DerivedComplianceAudit, error)

	SetOriginalStatus(dbc dbctx.Context, ref types.DerivedAuditRef, status types.OriginalAuditStatus) error
}

type derivedAuditRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	quota *WriteQuota
}

func NewDerivedAuditRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) DerivedAuditRepo {
	return &derivedAuditRepo{db: db, log: baseLog.With("repo", "DerivedAuditRepo"), quota: quota}
}

func (r *derivedAuditRepo) table(dbc dbctx.Context, cat types.DerivedCategory) (*gorm.DB, error) {
	if !cat.Valid() {
		return nil, fmt.Errorf("%w: unknown derived category %q", gorm.ErrInvalidData, cat)
	}
	return dbc.DB(r.db).Table(cat.TableName()), nil
}

func (r *derivedAuditRepo) Create(dbc dbctx.Context, cat types.DerivedCategory, row *types.DerivedComplianceAudit) (*types.DerivedComplianceAudit, error) {
	t, err := r.table(dbc, cat)
	if err != nil {
		return nil, err
	}
	if row == nil || row.OriginalAuditID == uuid.Nil {
		return nil, gorm.ErrInvalidData
	}
	if err := r.quota.charge(dbc); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.OriginalAuditStatus == "" {
		row.OriginalAuditStatus = types.OriginalAuditLive
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	if err := t.Create(row).Error; err != nil {
		return nil, err
	}
	row.Category = cat
	return row, nil
}

func (r *derivedAuditRepo) ListByOriginal(dbc dbctx.Context, cat types.DerivedCategory, originalAuditID uuid.UUID) ([]*types.DerivedComplianceAudit, error) {
	t, err := r.table(dbc, cat)
	if err != nil {
		return nil, err
	}
	var out []*types.DerivedComplianceAudit
	if err := t.Where("original_audit_id = ?", originalAuditID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	for _, row := range out {
		row.Category = cat
	}
	return out, nil
}

func (r *derivedAuditRepo) List(dbc dbctx.Context, cat types.DerivedCategory, branchID string) ([]*types.DerivedComplianceAudit, error) {
	t, err := r.table(dbc, cat)
	if err != nil {
		return nil, err
	}
	if branchID != "" {
		t = t.Where("branch_id = ?", branchID)
	}
	var out []*types.DerivedComplianceAudit
	if err := t.Order("audit_date DESC, created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	for _, row := range out {
		row.Category = cat
	}
	return out, nil
}

func (r *derivedAuditRepo) SetOriginalStatus(dbc dbctx.Context, ref types.DerivedAuditRef, status types.OriginalAuditStatus) error {
	t, err := r.table(dbc, ref.Category)
	if err != nil {
		return err
	}
	if err := r.quota.charge(dbc); err != nil {
		return err
	}
	res := t.Where("id = ?", ref.ID).Updates(map[string]interface{}{
		"original_audit_status": status,
		"updated_at":            time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
