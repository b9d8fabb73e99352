package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/branchaudit-backend/internal/domain"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type TopicRepo interface {
	Create(dbc dbctx.Context, rows []*types.Topic) ([]*types.Topic, error)
	List(dbc dbctx.Context, activeOnly bool) ([]*types.Topic, error)
}

type topicRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	quota *WriteQuota
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo"), quota: quota}
}

func (r *topicRepo) Create(dbc dbctx.Context, rows []*types.Topic) ([]*types.Topic, error) {
	if len(rows) == 0 {
		return []*types.Topic{}, nil
	}
	if err := r.quota.charge(dbc); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.CreatedAt = now
		row.UpdatedAt = now
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *topicRepo) List(dbc dbctx.Context, activeOnly bool) ([]*types.Topic, error) {
	var out []*types.Topic
	q := dbc.DB(r.db)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type LocationRepo interface {
	Create(dbc dbctx.Context, rows []*types.Location) ([]*types.Location, error)
	List(dbc dbctx.Context, activeOnly bool) ([]*types.Location, error)
}

type locationRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	quota *WriteQuota
}

func NewLocationRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) LocationRepo {
	return &locationRepo{db: db, log: baseLog.With("repo", "LocationRepo"), quota: quota}
}

func (r *locationRepo) Create(dbc dbctx.Context, rows []*types.Location) ([]*types.Location, error) {
	if len(rows) == 0 {
		return []*types.Location{}, nil
	}
	if err := r.quota.charge(dbc); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.CreatedAt = now
		row.UpdatedAt = now
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *locationRepo) List(dbc dbctx.Context, activeOnly bool) ([]*types.Location, error) {
	var out []*types.Location
	q := dbc.DB(r.db)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
