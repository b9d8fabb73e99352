package handlers

import (
	"github.com/gin-gonic/gin"

	types "github.com/yungbote/branchaudit-backend/internal/domain"
	"github.com/yungbote/branchaudit-backend/internal/http/response"
	"github.com/yungbote/branchaudit-backend/internal/services"
)

type DerivedAuditHandler struct {
	derived services.DerivedAuditService
}

func NewDerivedAuditHandler(derived services.DerivedAuditService) *DerivedAuditHandler {
	return &DerivedAuditHandler{derived: derived}
}

// POST /api/derived-audits/:category
func (h *DerivedAuditHandler) Create(c *gin.Context) {
	var req services.CreateDerivedAuditRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	row, err := h.derived.Create(c.Request.Context(), types.DerivedCategory(c.Param("category")), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"derived_audit": row})
}

// GET /api/derived-audits/:category
func (h *DerivedAuditHandler) List(c *gin.Context) {
	out, err := h.derived.List(c.Request.Context(), types.DerivedCategory(c.Param("category")), c.Query("branch_id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"derived_audits": out})
}

// GET /api/audits/:id/derived
func (h *DerivedAuditHandler) ListForAudit(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_audit_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out, err := h.derived.ListForAudit(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"derived_audits": out})
}
