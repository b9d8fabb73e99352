package app

import (
	"gorm.io/gorm"

	dataagg "github.com/yungbote/branchaudit-backend/internal/data/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/observability"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
	"github.com/yungbote/branchaudit-backend/internal/services"
)

type Services struct {
	Catalog  services.CatalogService
	Reorder  services.QuestionReorderService
	Audits   services.AuditService
	Overlay  services.ResponseOverlayService
	Archival services.ArchivalService
	Derived  services.DerivedAuditService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	base := dataagg.BaseDeps{DB: db, Log: log, Quota: r.Quota, Hooks: dataagg.NewMetricsHooks(metrics)}
	sources := dataagg.SnapshotSources{Questions: r.Question, Topics: r.Topic, Locations: r.Location}

	catalogAgg := dataagg.NewCatalogAggregate(dataagg.CatalogAggregateDeps{Base: base, Questions: r.Question})
	auditAgg := dataagg.NewAuditAggregate(dataagg.AuditAggregateDeps{
		Base: base, Audits: r.Audit, Responses: r.AuditorResponse, Snapshots: sources,
	})
	branchAgg := dataagg.NewBranchResponseAggregate(dataagg.BranchResponseAggregateDeps{
		Base: base, Audits: r.Audit, Responses: r.BranchResponse, Snapshots: sources,
	})

	audits := services.NewAuditService(log, r.Audit, sources, auditAgg)
	return Services{
		Catalog:  services.NewCatalogService(log, r.Question, r.Topic, r.Location, catalogAgg),
		Reorder:  services.NewQuestionReorderService(log, r.Question, catalogAgg, c.Locker, metrics, cfg.Reorder, nil),
		Audits:   audits,
		Overlay:  services.NewResponseOverlayService(log, audits, r.AuditorResponse, r.BranchResponse, auditAgg, branchAgg, c.Blobs),
		Archival: services.NewArchivalService(log, services.ArchivalServiceDeps{
			Audits:  r.Audit,
			Auditor: r.AuditorResponse,
			Branch:  r.BranchResponse,
			Derived: r.Derived,
			Archive: r.Archive,
			Locker:  c.Locker,
			Metrics: metrics,
			LockTTL: cfg.DeleteLockTTL,
		}),
		Derived: services.NewDerivedAuditService(log, r.Audit, r.Derived),
	}
}
