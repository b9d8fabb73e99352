package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	"github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
	"github.com/yungbote/branchaudit-backend/internal/http/response"
	"github.com/yungbote/branchaudit-backend/internal/platform/apierr"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
	"github.com/yungbote/branchaudit-backend/internal/services"
)

const maxEvidenceBytes = 25 << 20

type AuditHandler struct {
	log      *logger.Logger
	audits   services.AuditService
	overlay  services.ResponseOverlayService
	archival services.ArchivalService
}

func NewAuditHandler(log *logger.Logger, audits services.AuditService, overlay services.ResponseOverlayService, archival services.ArchivalService) *AuditHandler {
	return &AuditHandler{
		log:      log.With("handler", "AuditHandler"),
		audits:   audits,
		overlay:  overlay,
		archival: archival,
	}
}

type auditorResponseRequest struct {
	ResponseValue string   `json:"response_value"`
	FileURLs      []string `json:"file_urls"`
}

type branchResponseRequest struct {
	Responses audit.BranchResponseItems `json:"responses"`
}

// GET /api/audits
func (h *AuditHandler) ListAudits(c *gin.Context) {
	out, err := h.audits.List(c.Request.Context(), repos.AuditListFilter{
		BranchID:  strings.TrimSpace(c.Query("branch_id")),
		AuditType: strings.TrimSpace(c.Query("audit_type")),
		Limit:     intQuery(c, "limit", 0),
		Offset:    intQuery(c, "offset", 0),
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"audits": out})
}

// POST /api/audits
func (h *AuditHandler) CreateAudit(c *gin.Context) {
	var req services.CreateAuditRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	view, err := h.audits.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, view)
}

// GET /api/audits/:id
func (h *AuditHandler) GetAudit(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_audit_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	view, err := h.audits.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/audits/:id/render
func (h *AuditHandler) RenderAudit(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_audit_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out, err := h.overlay.Render(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// DELETE /api/audits/:id
func (h *AuditHandler) DeleteAudit(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_audit_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	report, err := h.archival.DeleteAudit(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if report.Partial {
		h.log.Warn("audit deleted with cascade failures", "audit_id", id, "failures", len(report.Failures))
	}
	response.RespondOK(c, gin.H{"report": report})
}

// GET /api/audits/:id/auditor-responses
func (h *AuditHandler) ListAuditorResponses(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_audit_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out, err := h.overlay.ListAuditorResponses(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"responses": out})
}

// PUT /api/audits/:id/auditor-responses/:question_id
func (h *AuditHandler) SaveAuditorResponse(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_audit_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	qid, err := uuidParam(c, "question_id", "invalid_question_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req auditorResponseRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	row, err := h.overlay.SaveAuditorResponse(c.Request.Context(), aggregates.SaveAuditorResponseInput{
		AuditID:       id,
		QuestionID:    qid,
		ResponseValue: req.ResponseValue,
		FileURLs:      req.FileURLs,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"response": row})
}

// GET /api/audits/:id/branch-response
func (h *AuditHandler) GetBranchResponse(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_audit_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	row, err := h.overlay.GetBranchResponse(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"branch_response": row})
}

// GET /api/audits/:id/branch-response/editable
func (h *AuditHandler) CheckBranchEditable(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_audit_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if err := h.overlay.CheckBranchEditable(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"editable": true})
}

// PUT /api/audits/:id/branch-response
func (h *AuditHandler) SaveBranchDraft(c *gin.Context) {
	h.writeBranchResponse(c, false)
}

// POST /api/audits/:id/branch-response/submit
func (h *AuditHandler) SubmitBranchResponse(c *gin.Context) {
	h.writeBranchResponse(c, true)
}

func (h *AuditHandler) writeBranchResponse(c *gin.Context, submit bool) {
	id, err := uuidParam(c, "id", "invalid_audit_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var req branchResponseRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	write := h.overlay.SaveBranchDraft
	if submit {
		write = h.overlay.SubmitBranchResponse
	}
	row, err := write(c.Request.Context(), id, req.Responses)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"branch_response": row})
}

// POST /api/audits/:id/files
func (h *AuditHandler) UploadEvidence(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_audit_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxEvidenceBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondErr(c, apierr.BadRequest("missing_file", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondErr(c, apierr.BadRequest("unreadable_file", err))
		return
	}
	defer f.Close()

	url, err := h.overlay.UploadEvidence(c.Request.Context(), services.EvidenceUpload{
		AuditID:     id,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"url": url})
}

// GET /api/archive
func (h *AuditHandler) ListArchived(c *gin.Context) {
	out, err := h.archival.ListArchived(c.Request.Context(), c.Query("item_type"), intQuery(c, "limit", 100))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"items": out})
}
