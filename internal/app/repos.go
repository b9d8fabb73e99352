package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type Repos struct {
	Question        repos.QuestionRepo
	Topic           repos.TopicRepo
	Location        repos.LocationRepo
	Audit           repos.AuditRepo
	AuditorResponse repos.AuditorResponseRepo
	BranchResponse  repos.BranchResponseRepo
	Derived         repos.DerivedAuditRepo
	Archive         repos.ArchiveRepo

	// Quota is charged by repo writes outside a transaction and once per
	// aggregate transaction.
	Quota *repos.WriteQuota
}

func wireRepos(db *gorm.DB, log *logger.Logger, cfg Config) Repos {
	log.Info("Wiring repos...")
	// One shared budget: the store's write limit is global, not per table.
	quota := repos.NewWriteQuota(cfg.StoreWriteRPS, cfg.StoreWriteBurst)
	return Repos{
		Question:        repos.NewQuestionRepo(db, log, quota),
		Topic:           repos.NewTopicRepo(db, log, quota),
		Location:        repos.NewLocationRepo(db, log, quota),
		Audit:           repos.NewAuditRepo(db, log, quota),
		AuditorResponse: repos.NewAuditorResponseRepo(db, log, quota),
		BranchResponse:  repos.NewBranchResponseRepo(db, log, quota),
		Derived:         repos.NewDerivedAuditRepo(db, log, quota),
		Archive:         repos.NewArchiveRepo(db, log, quota),
		Quota:           quota,
	}
}
