package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	dataagg "github.com/yungbote/branchaudit-backend/internal/data/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	repotest "github.com/yungbote/branchaudit-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/observability"
	"github.com/yungbote/branchaudit-backend/internal/platform/blob"
	"github.com/yungbote/branchaudit-backend/internal/platform/ctxutil"
	"github.com/yungbote/branchaudit-backend/internal/platform/lock"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordingSleeper) Waits() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.waits...)
}

type fixture struct {
	log       *logger.Logger
	db        *gorm.DB
	questions repos.QuestionRepo
	auditRepo repos.AuditRepo
	auditor   repos.AuditorResponseRepo
	branch    repos.BranchResponseRepo
	derived   repos.DerivedAuditRepo
	archive   repos.ArchiveRepo

	catalogAgg domainagg.CatalogAggregate
	auditAgg   domainagg.AuditAggregate
	branchAgg  domainagg.BranchResponseAggregate

	locker  *lock.MemoryLocker
	metrics *observability.Metrics
	blobs   *blob.MemoryStore
	sleeper *recordingSleeper

	catalog CatalogService
	audits  AuditService
	overlay ResponseOverlayService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	metrics := observability.NewMetrics()
	base := dataagg.BaseDeps{DB: db, Log: log, Hooks: dataagg.NewMetricsHooks(metrics)}

	f := &fixture{
		log:       log,
		db:        db,
		questions: repos.NewQuestionRepo(db, log, nil),
		auditRepo: repos.NewAuditRepo(db, log, nil),
		auditor:   repos.NewAuditorResponseRepo(db, log, nil),
		branch:    repos.NewBranchResponseRepo(db, log, nil),
		derived:   repos.NewDerivedAuditRepo(db, log, nil),
		archive:   repos.NewArchiveRepo(db, log, nil),
		locker:    lock.NewMemoryLocker(),
		metrics:   metrics,
		blobs:     blob.NewMemoryStore("https://cdn.test"),
		sleeper:   &recordingSleeper{},
	}
	topics := repos.NewTopicRepo(db, log, nil)
	locations := repos.NewLocationRepo(db, log, nil)
	sources := dataagg.SnapshotSources{Questions: f.questions, Topics: topics, Locations: locations}

	f.catalogAgg = dataagg.NewCatalogAggregate(dataagg.CatalogAggregateDeps{Base: base, Questions: f.questions})
	f.auditAgg = dataagg.NewAuditAggregate(dataagg.AuditAggregateDeps{Base: base, Audits: f.auditRepo, Responses: f.auditor, Snapshots: sources})
	f.branchAgg = dataagg.NewBranchResponseAggregate(dataagg.BranchResponseAggregateDeps{Base: base, Audits: f.auditRepo, Responses: f.branch, Snapshots: sources})

	f.catalog = NewCatalogService(log, f.questions, topics, locations, f.catalogAgg)
	f.audits = NewAuditService(log, f.auditRepo, sources, f.auditAgg)
	f.overlay = NewResponseOverlayService(log, f.audits, f.auditor, f.branch, f.auditAgg, f.branchAgg, f.blobs)
	return f
}

func (f *fixture) reorder(catalog domainagg.CatalogAggregate) QuestionReorderService {
	return NewQuestionReorderService(f.log, f.questions, catalog, f.locker, f.metrics, DefaultReorderConfig(), f.sleeper.Sleep)
}

func (f *fixture) archival(derived repos.DerivedAuditRepo, archive repos.ArchiveRepo) ArchivalService {
	if derived == nil {
		derived = f.derived
	}
	if archive == nil {
		archive = f.archive
	}
	return NewArchivalService(f.log, ArchivalServiceDeps{
		Audits:  f.auditRepo,
		Auditor: f.auditor,
		Branch:  f.branch,
		Derived: derived,
		Archive: archive,
		Locker:  f.locker,
		Metrics: f.metrics,
	})
}

func asUser(name string) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: "u-" + name, DisplayName: name})
}
