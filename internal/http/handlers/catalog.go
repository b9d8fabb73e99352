package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
	"github.com/yungbote/branchaudit-backend/internal/http/response"
	"github.com/yungbote/branchaudit-backend/internal/platform/apierr"
	"github.com/yungbote/branchaudit-backend/internal/services"
)

type CatalogHandler struct {
	catalog services.CatalogService
	reorder services.QuestionReorderService
}

func NewCatalogHandler(catalog services.CatalogService, reorder services.QuestionReorderService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, reorder: reorder}
}

type createQuestionRequest struct {
	Text       string             `json:"text"`
	Type       audit.QuestionType `json:"type"`
	Choices    []string           `json:"choices"`
	TopicID    *uuid.UUID         `json:"topic_id"`
	LocationID *uuid.UUID         `json:"location_id"`
	MaxScore   int                `json:"max_score"`
	IsRequired bool               `json:"is_required"`
}

type reorderRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

type namedRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GET /api/questionnaires
func (h *CatalogHandler) ListQuestionnaires(c *gin.Context) {
	out, err := h.catalog.ListTypes(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"questionnaire_types": out})
}

// GET /api/questionnaires/:type/questions
func (h *CatalogHandler) ListQuestions(c *gin.Context) {
	list := h.catalog.List
	if boolQuery(c, "include_inactive") {
		list = h.catalog.ListAll
	}
	out, err := list(c.Request.Context(), c.Param("type"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"questions": out})
}

// POST /api/questionnaires/:type/questions
func (h *CatalogHandler) CreateQuestion(c *gin.Context) {
	var req createQuestionRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	q, err := h.catalog.Create(c.Request.Context(), aggregates.CreateQuestionInput{
		QuestionnaireType: c.Param("type"),
		Text:              req.Text,
		Type:              req.Type,
		Choices:           req.Choices,
		TopicID:           req.TopicID,
		LocationID:        req.LocationID,
		MaxScore:          req.MaxScore,
		IsRequired:        req.IsRequired,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"question": q})
}

// POST /api/questionnaires/:type/reorder
func (h *CatalogHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	if req.From == nil || req.To == nil {
		response.RespondErr(c, aggregates.NewError(aggregates.CodeValidation, "reorder", "from and to are required", nil))
		return
	}
	res, err := h.reorder.Reorder(c.Request.Context(), services.ReorderInput{
		QuestionnaireType: c.Param("type"),
		From:              *req.From,
		To:                *req.To,
	})
	if err != nil && res == nil {
		response.RespondErr(c, err)
		return
	}
	if err != nil {
		// rolled back: the client resyncs from the reloaded order
		ae := apierr.FromError(err)
		c.JSON(ae.Status, gin.H{
			"error":   response.APIError{Message: err.Error(), Code: ae.Code},
			"reorder": res,
		})
		return
	}
	response.RespondOK(c, gin.H{"reorder": res})
}

// GET /api/questionnaires/:type/reorder
func (h *CatalogHandler) ReorderStatus(c *gin.Context) {
	st, err := h.reorder.Status(c.Request.Context(), c.Param("type"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reorder": st})
}

// GET /api/questions/:id
func (h *CatalogHandler) GetQuestion(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_question_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	q, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"question": q})
}

// PATCH /api/questions/:id
func (h *CatalogHandler) UpdateQuestion(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_question_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	var patch audit.QuestionPatch
	if err := bindJSON(c, &patch); err != nil {
		response.RespondErr(c, err)
		return
	}
	q, err := h.catalog.Update(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"question": q})
}

// DELETE /api/questions/:id
func (h *CatalogHandler) DeleteQuestion(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_question_id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	res, err := h.catalog.Delete(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"questionnaire_type": res.QuestionnaireType,
		"remaining":          res.Remaining,
		"rewritten":          res.Rewritten,
	})
}

// GET /api/topics
func (h *CatalogHandler) ListTopics(c *gin.Context) {
	out, err := h.catalog.ListTopics(c.Request.Context(), !boolQuery(c, "include_inactive"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"topics": out})
}

// POST /api/topics
func (h *CatalogHandler) CreateTopic(c *gin.Context) {
	var req namedRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	t, err := h.catalog.CreateTopic(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"topic": t})
}

// GET /api/locations
func (h *CatalogHandler) ListLocations(c *gin.Context) {
	out, err := h.catalog.ListLocations(c.Request.Context(), !boolQuery(c, "include_inactive"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"locations": out})
}

// POST /api/locations
func (h *CatalogHandler) CreateLocation(c *gin.Context) {
	var req namedRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	l, err := h.catalog.CreateLocation(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"location": l})
}
