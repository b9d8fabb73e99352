package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/branchaudit-backend/internal/domain"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type AuditorResponseRepo interface {
	Upsert(dbc dbctx.Context, row *types.AuditorResponse) (*types.AuditorResponse, error)

	Get(dbc dbctx.Context, auditID, questionID uuid.UUID) (*types.AuditorResponse, error)
	ListByAudit(dbc dbctx.Context, auditID uuid.UUID) ([]*types.AuditorResponse, error)

	DeleteByID(dbc dbctx.Context, id uuid.UUID) error
}

type auditorResponseRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	quota *WriteQuota
}

func NewAuditorResponseRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) AuditorResponseRepo {
	return &auditorResponseRepo{db: db, log: baseLog.With("repo", "AuditorResponseRepo"), quota: quota}
}

// Upsert writes the response for (audit_id, question_id), replacing value and files.
func (r *auditorResponseRepo) Upsert(dbc dbctx.Context, row *types.AuditorResponse) (*types.AuditorResponse, error) {
	if row == nil || row.AuditID == uuid.Nil || row.QuestionID == uuid.Nil {
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
	if row.FileURLs == nil {
		row.FileURLs = []string{}
	}

	err := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "audit_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"response_value", "file_urls", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.Get(dbc, row.AuditID, row.QuestionID)
}

func (r *auditorResponseRepo) Get(dbc dbctx.Context, auditID, questionID uuid.UUID) (*types.AuditorResponse, error) {
	var row types.AuditorResponse
	err := dbc.DB(r.db).
		Where("audit_id = ? AND question_id = ?", auditID, questionID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *auditorResponseRepo) ListByAudit(dbc dbctx.Context, auditID uuid.UUID) ([]*types.AuditorResponse, error) {
	var out []*types.AuditorResponse
	if err := dbc.DB(r.db).Where("audit_id = ?", auditID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *auditorResponseRepo) DeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	if err := r.quota.charge(dbc); err != nil {
		return err
	}
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.AuditorResponse{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
