package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/branchaudit-backend/internal/http"
	httpH "github.com/yungbote/branchaudit-backend/internal/http/handlers"
	"github.com/yungbote/branchaudit-backend/internal/observability"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Catalog *httpH.CatalogHandler
	Audit   *httpH.AuditHandler
	Derived *httpH.DerivedAuditHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(db),
		Catalog: httpH.NewCatalogHandler(s.Catalog, s.Reorder),
		Audit:   httpH.NewAuditHandler(log, s.Audits, s.Overlay, s.Archival),
		Derived: httpH.NewDerivedAuditHandler(s.Derived),
	}
}

func wireRouter(log *logger.Logger, cfg Config, h Handlers, metrics *observability.Metrics) *gin.Engine {
	serviceName := ""
	if cfg.OtelEnabled {
		serviceName = cfg.ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.CORSOrigins,
		HealthHandler:  h.Health,
		CatalogHandler: h.Catalog,
		AuditHandler:   h.Audit,
		DerivedHandler: h.Derived,
	})
}
