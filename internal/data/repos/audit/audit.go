package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/branchaudit-backend/internal/domain"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type AuditListFilter struct {
	BranchID  string
	AuditType string
	Limit     int
	Offset    int
}

type AuditRepo interface {
	Create(dbc dbctx.Context, rows []*types.Audit) ([]*types.Audit, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Audit, error)
	List(dbc dbctx.Context, filter AuditListFilter) ([]*types.Audit, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error

	FullDeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type auditRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	quota *WriteQuota
}

func NewAuditRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) AuditRepo {
	return &auditRepo{db: db, log: baseLog.With("repo", "AuditRepo"), quota: quota}
}

func (r *auditRepo) Create(dbc dbctx.Context, rows []*types.Audit) ([]*types.Audit, error) {
	if len(rows) == 0 {
		return []*types.Audit{}, nil
	}
	if err := r.quota.charge(dbc); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *auditRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Audit, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Audit
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *auditRepo) List(dbc dbctx.Context, filter AuditListFilter) ([]*types.Audit, error) {
	var out []*types.Audit
	q := dbc.DB(r.db)
	if v := strings.TrimSpace(filter.BranchID); v != "" {
		q = q.Where("branch_id = ?", v)
	}
	if v := strings.TrimSpace(filter.AuditType); v != "" {
		q = q.Where("audit_type = ?", v)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q = q.Order("audit_date DESC, created_at DESC").Limit(limit)
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *auditRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if err := r.quota.charge(dbc); err != nil {
		return err
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := dbc.DB(r.db).Model(&types.Audit{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *auditRepo) FullDeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	if err := r.quota.charge(dbc); err != nil {
		return err
	}
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Audit{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
