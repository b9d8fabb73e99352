package audit

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/branchaudit-backend/internal/domain"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type QuestionRepo interface {
	Create(dbc dbctx.Context, rows []*types.Question) ([]*types.Question, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Question, error)
	ListByType(dbc dbctx.Context, questionnaireType string, activeOnly bool) ([]*types.Question, error)
	CountActive(dbc dbctx.Context, questionnaireType string) (int, error)
	ListTypes(dbc dbctx.Context) ([]string, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SetOrderIndex(dbc dbctx.Context, id uuid.UUID, orderIndex int) error

	FullDeleteByID(dbc dbctx.Context, id uuid.UUID) error

	// LockOrder holds the ordering of questionnaireType until the
	// transaction ends.
	LockOrder(dbc dbctx.Context, questionnaireType string) error
}

type questionRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	quota *WriteQuota
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo"), quota: quota}
}

func (r *questionRepo) Create(dbc dbctx.Context, rows []*types.Question) ([]*types.Question, error) {
	if len(rows) == 0 {
		return []*types.Question{}, nil
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

func (r *questionRepo) LockOrder(dbc dbctx.Context, questionnaireType string) error {
	if dbc.Tx == nil {
		return errors.New("LockOrder requires a transaction")
	}
	stmt := orderLockStatement(dbc.Tx.Dialector.Name())
	if stmt == "" {
		return nil
	}
	return dbc.Tx.Exec(stmt, "question_order:"+strings.TrimSpace(questionnaireType)).Error
}

// orderLockStatement is empty for SQLite, whose single writer lock already
// serialises the transaction.
func orderLockStatement(dialect string) string {
	if dialect == "postgres" {
		return "SELECT pg_advisory_xact_lock(hashtext(?))"
	}
	return ""
}

func (r *questionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Question, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Question
	err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *questionRepo) ListByType(dbc dbctx.Context, questionnaireType string, activeOnly bool) ([]*types.Question, error) {
	var out []*types.Question
	q := dbc.DB(r.db).Where("questionnaire_type = ?", strings.TrimSpace(questionnaireType))
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("order_index ASC, created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) CountActive(dbc dbctx.Context, questionnaireType string) (int, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&types.Question{}).
		Where("questionnaire_type = ? AND is_active = ?", strings.TrimSpace(questionnaireType), true).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *questionRepo) ListTypes(dbc dbctx.Context) ([]string, error) {
	var out []string
	err := dbc.DB(r.db).
		Model(&types.Question{}).
		Distinct("questionnaire_type").
		Order("questionnaire_type ASC").
		Pluck("questionnaire_type", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *questionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return gorm.ErrRecordNotFound
	}
	if err := r.quota.charge(dbc); err != nil {
		return err
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := dbc.DB(r.db).
		Model(&types.Question{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *questionRepo) SetOrderIndex(dbc dbctx.Context, id uuid.UUID, orderIndex int) error {
	return r.UpdateFields(dbc, id, map[string]interface{}{"order_index": orderIndex})
}

func (r *questionRepo) FullDeleteByID(dbc dbctx.Context, id uuid.UUID) error {
	if err := r.quota.charge(dbc); err != nil {
		return err
	}
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Question{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
