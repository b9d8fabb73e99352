package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/branchaudit-backend/internal/http/handlers"
	httpMW "github.com/yungbote/branchaudit-backend/internal/http/middleware"
	"github.com/yungbote/branchaudit-backend/internal/observability"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	CatalogHandler *httpH.CatalogHandler
	AuditHandler   *httpH.AuditHandler
	DerivedHandler *httpH.DerivedAuditHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")

	// Questionnaire catalog
	if h := cfg.CatalogHandler; h != nil {
		api.GET("/questionnaires", h.ListQuestionnaires)
		api.GET("/questionnaires/:type/questions", h.ListQuestions)
		api.POST("/questionnaires/:type/questions", h.CreateQuestion)
		api.POST("/questionnaires/:type/reorder", h.Reorder)
		api.GET("/questionnaires/:type/reorder", h.ReorderStatus)
		api.GET("/questions/:id", h.GetQuestion)
		api.PATCH("/questions/:id", h.UpdateQuestion)
		api.DELETE("/questions/:id", h.DeleteQuestion)
		api.GET("/topics", h.ListTopics)
		api.POST("/topics", h.CreateTopic)
		api.GET("/locations", h.ListLocations)
		api.POST("/locations", h.CreateLocation)
	}

	// Audits and responses
	if h := cfg.AuditHandler; h != nil {
		api.GET("/audits", h.ListAudits)
		api.POST("/audits", h.CreateAudit)
		api.GET("/audits/:id", h.GetAudit)
		api.DELETE("/audits/:id", h.DeleteAudit)
		api.GET("/audits/:id/render", h.RenderAudit)
		api.GET("/audits/:id/auditor-responses", h.ListAuditorResponses)
		api.PUT("/audits/:id/auditor-responses/:question_id", h.SaveAuditorResponse)
		api.GET("/audits/:id/branch-response", h.GetBranchResponse)
		api.PUT("/audits/:id/branch-response", h.SaveBranchDraft)
		api.GET("/audits/:id/branch-response/editable", h.CheckBranchEditable)
		api.POST("/audits/:id/branch-response/submit", h.SubmitBranchResponse)
		api.POST("/audits/:id/files", h.UploadEvidence)
		api.GET("/archive", h.ListArchived)
	}

	// Derived compliance audits
	if h := cfg.DerivedHandler; h != nil {
		api.GET("/derived-audits/:category", h.List)
		api.POST("/derived-audits/:category", h.Create)
		api.GET("/audits/:id/derived", h.ListForAudit)
	}

	return r
}
