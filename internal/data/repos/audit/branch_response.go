package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/branchaudit-backend/internal/domain"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type BranchResponseRepo interface {
	Create(dbc dbctx.Context, row *types.BranchAuditResponse) (*types.BranchAuditResponse, error)

	GetByAudit(dbc dbctx.Context, auditID uuid.UUID) (*types.BranchAuditResponse, error)

	DeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type branchResponseRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	quota *WriteQuota
}

func NewBranchResponseRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) BranchResponseRepo {
	return &branchResponseRepo{db: db, log: baseLog.With("repo", "BranchResponseRepo"), quota: quota}
}

func (r *branchResponseRepo) Create(dbc dbctx.Context, row *types.BranchAuditResponse) (*types.BranchAuditResponse, error) {
	if row == nil || row.AuditID == uuid.Nil {
		return nil, gorm.ErrInvalidData
	}
	if err := r.quota.charge(dbc); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *branchResponseRepo) GetByAudit(dbc dbctx.Context, auditID uuid.UUID) (*types.BranchAuditResponse, error) {
	if auditID == uuid.Nil {
		return nil, nil
	}
	var row types.BranchAuditResponse
	if err := dbc.DB(r.db).Where("audit_id = ?", auditID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *branchResponseRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	if err := r.quota.charge(dbc); err != nil {
		return err
	}
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.BranchAuditResponse{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
