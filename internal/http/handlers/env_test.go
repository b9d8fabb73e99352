package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	dataagg "github.com/yungbote/branchaudit-backend/internal/data/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	repotest "github.com/yungbote/branchaudit-backend/internal/data/repos/testutil"
	httpMW "github.com/yungbote/branchaudit-backend/internal/http/middleware"
	"github.com/yungbote/branchaudit-backend/internal/observability"
	"github.com/yungbote/branchaudit-backend/internal/platform/blob"
	"github.com/yungbote/branchaudit-backend/internal/platform/lock"
	"github.com/yungbote/branchaudit-backend/internal/services"
)

type testEnv struct {
	db     *gorm.DB
	engine *gin.Engine
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := repotest.DB(t)
	log := repotest.Logger(t)
	metrics := observability.NewMetrics()
	base := dataagg.BaseDeps{DB: db, Log: log, Hooks: dataagg.NewMetricsHooks(metrics)}

	questions := repos.NewQuestionRepo(db, log, nil)
	topics := repos.NewTopicRepo(db, log, nil)
	locations := repos.NewLocationRepo(db, log, nil)
	audits := repos.NewAuditRepo(db, log, nil)
	auditor := repos.NewAuditorResponseRepo(db, log, nil)
	branch := repos.NewBranchResponseRepo(db, log, nil)
	derived := repos.NewDerivedAuditRepo(db, log, nil)
	archive := repos.NewArchiveRepo(db, log, nil)
	sources := dataagg.SnapshotSources{Questions: questions, Topics: topics, Locations: locations}
	locker := lock.NewMemoryLocker()

	catalogAgg := dataagg.NewCatalogAggregate(dataagg.CatalogAggregateDeps{Base: base, Questions: questions})
	auditAgg := dataagg.NewAuditAggregate(dataagg.AuditAggregateDeps{Base: base, Audits: audits, Responses: auditor, Snapshots: sources})
	branchAgg := dataagg.NewBranchResponseAggregate(dataagg.BranchResponseAggregateDeps{Base: base, Audits: audits, Responses: branch, Snapshots: sources})

	catalogSvc := services.NewCatalogService(log, questions, topics, locations, catalogAgg)
	reorderSvc := services.NewQuestionReorderService(log, questions, catalogAgg, locker, metrics, services.DefaultReorderConfig(), noSleep)
	auditSvc := services.NewAuditService(log, audits, sources, auditAgg)
	overlaySvc := services.NewResponseOverlayService(log, auditSvc, auditor, branch, auditAgg, branchAgg, blob.NewMemoryStore("https://cdn.test"))
	archivalSvc := services.NewArchivalService(log, services.ArchivalServiceDeps{
		Audits: audits, Auditor: auditor, Branch: branch, Derived: derived, Archive: archive, Locker: locker, Metrics: metrics,
	})
	derivedSvc := services.NewDerivedAuditService(log, audits, derived)

	ch := NewCatalogHandler(catalogSvc, reorderSvc)
	ah := NewAuditHandler(log, auditSvc, overlaySvc, archivalSvc)
	dh := NewDerivedAuditHandler(derivedSvc)

	r := gin.New()
	r.Use(httpMW.AttachRequestContext())
	api := r.Group("/api")
	api.GET("/questionnaires", ch.ListQuestionnaires)
	api.GET("/questionnaires/:type/questions", ch.ListQuestions)
	api.POST("/questionnaires/:type/questions", ch.CreateQuestion)
	api.POST("/questionnaires/:type/reorder", ch.Reorder)
	api.GET("/questionnaires/:type/reorder", ch.ReorderStatus)
	api.GET("/questions/:id", ch.GetQuestion)
	api.PATCH("/questions/:id", ch.UpdateQuestion)
	api.DELETE("/questions/:id", ch.DeleteQuestion)

	api.POST("/audits", ah.CreateAudit)
	api.GET("/audits/:id", ah.GetAudit)
	api.DELETE("/audits/:id", ah.DeleteAudit)
	api.GET("/audits/:id/render", ah.RenderAudit)
	api.PUT("/audits/:id/auditor-responses/:question_id", ah.SaveAuditorResponse)
	api.GET("/audits/:id/branch-response", ah.GetBranchResponse)
	api.PUT("/audits/:id/branch-response", ah.SaveBranchDraft)
	api.GET("/audits/:id/branch-response/editable", ah.CheckBranchEditable)
	api.POST("/audits/:id/branch-response/submit", ah.SubmitBranchResponse)
	api.POST("/audits/:id/files", ah.UploadEvidence)
	api.GET("/archive", ah.ListArchived)

	api.POST("/derived-audits/:category", dh.Create)
	api.GET("/derived-audits/:category", dh.List)
	api.GET("/audits/:id/derived", dh.ListForAudit)

	return &testEnv{db: db, engine: r}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, user string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(httpMW.HeaderUserID, "u-"+user)
		req.Header.Set(httpMW.HeaderUserName, user)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status: want %d, got %d body=%s", want, w.Code, w.Body.String())
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
