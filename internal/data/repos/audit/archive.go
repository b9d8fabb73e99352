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

type ArchiveRepo interface {
	Create(dbc dbctx.Context, row *types.ArchivedItem) (*types.ArchivedItem, error)

	List(dbc dbctx.Context, itemType string, limit int) ([]*types.ArchivedItem, error)
	GetByOriginal(dbc dbctx.Context, itemType string, originalID uuid.UUID) ([]*types.ArchivedItem, error)
}

type archiveRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	quota *WriteQuota
}

func NewArchiveRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) ArchiveRepo {
	return &archiveRepo{db: db, log: baseLog.With("repo", "ArchiveRepo"), quota: quota}
}

func (r *archiveRepo) Create(dbc dbctx.Context, row *types.ArchivedItem) (*types.ArchivedItem, error) {
	if row == nil || row.OriginalID == uuid.Nil || strings.TrimSpace(row.ItemType) == "" {
		return nil, gorm.ErrInvalidData
	}
	if err := r.quota.charge(dbc); err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.ArchivedAt.IsZero() {
		row.ArchivedAt = time.Now().UTC()
	}
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *archiveRepo) List(dbc dbctx.Context, itemType string, limit int) ([]*types.ArchivedItem, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := dbc.DB(r.db)
	if v := strings.TrimSpace(itemType); v != "" {
		q = q.Where("item_type = ?", v)
	}
	var out []*types.ArchivedItem
	if err := q.Order("archived_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *archiveRepo) GetByOriginal(dbc dbctx.Context, itemType string, originalID uuid.UUID) ([]*types.ArchivedItem, error) {
	var out []*types.ArchivedItem
	err := dbc.DB(r.db).
		Where("item_type = ? AND original_id = ?", strings.TrimSpace(itemType), originalID).
		Order("archived_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
