package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/branchaudit-backend/internal/data/repos/audit"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type QuestionRepo = audit.QuestionRepo
type TopicRepo = audit.TopicRepo
type LocationRepo = audit.LocationRepo

type AuditRepo = audit.AuditRepo
type AuditListFilter = audit.AuditListFilter
type AuditorResponseRepo = audit.AuditorResponseRepo
type BranchResponseRepo = audit.BranchResponseRepo

type DerivedAuditRepo = audit.DerivedAuditRepo
type ArchiveRepo = audit.ArchiveRepo

type WriteQuota = audit.WriteQuota

var ErrRateLimited = audit.ErrRateLimited

func NewWriteQuota(perSecond float64, burst int) *WriteQuota {
	return audit.NewWriteQuota(perSecond, burst)
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) QuestionRepo {
	return audit.NewQuestionRepo(db, baseLog, quota)
}
func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) TopicRepo {
	return audit.NewTopicRepo(db, baseLog, quota)
}
func NewLocationRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) LocationRepo {
	return audit.NewLocationRepo(db, baseLog, quota)
}

func NewAuditRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) AuditRepo {
	return audit.NewAuditRepo(db, baseLog, quota)
}
func NewAuditorResponseRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) AuditorResponseRepo {
	return audit.NewAuditorResponseRepo(db, baseLog, quota)
}
func NewBranchResponseRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) BranchResponseRepo {
	return audit.NewBranchResponseRepo(db, baseLog, quota)
}

func NewDerivedAuditRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) DerivedAuditRepo {
	return audit.NewDerivedAuditRepo(db, baseLog, quota)
}
func NewArchiveRepo(db *gorm.DB, baseLog *logger.Logger, quota *WriteQuota) ArchiveRepo {
	return audit.NewArchiveRepo(db, baseLog, quota)
}
