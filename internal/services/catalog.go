package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	dataagg "github.com/yungbote/branchaudit-backend/internal/data/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	types "github.com/yungbote/branchaudit-backend/internal/domain"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type CatalogService interface {
	ListTypes(ctx context.Context) ([]string, error)
	List(ctx context.Context, questionnaireType string) ([]*types.Question, error)
	ListAll(ctx context.Context, questionnaireType string) ([]*types.Question, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Question, error)
	Create(ctx context.Context, in domainagg.CreateQuestionInput) (*types.Question, error)
	Update(ctx context.Context, id uuid.UUID, patch types.QuestionPatch) (*types.Question, error)
	Delete(ctx context.Context, id uuid.UUID) (domainagg.DeleteQuestionResult, error)

	ListTopics(ctx context.Context, activeOnly bool) ([]*types.Topic, error)
	CreateTopic(ctx context.Context, name, description string) (*types.Topic, error)
	ListLocations(ctx context.Context, activeOnly bool) ([]*types.Location, error)
	CreateLocation(ctx context.Context, name, description string) (*types.Location, error)
}

type catalogService struct {
	log       *logger.Logger
	questions repos.QuestionRepo
	topics    repos.TopicRepo
	locations repos.LocationRepo
	catalog   domainagg.CatalogAggregate
	now       func() time.Time
}

func NewCatalogService(
	log *logger.Logger,
	questions repos.QuestionRepo,
	topics repos.TopicRepo,
	locations repos.LocationRepo,
	catalog domainagg.CatalogAggregate,
) CatalogService {
	return &catalogService{
		log:       log.With("service", "CatalogService"),
		questions: questions,
		topics:    topics,
		locations: locations,
		catalog:   catalog,
		now:       time.Now,
	}
}

func requireType(op, questionnaireType string) (string, error) {
	qtype := strings.TrimSpace(questionnaireType)
	if qtype == "" {
		return "", domainagg.NewError(domainagg.CodeValidation, op, "questionnaire type is required", nil)
	}
	return qtype, nil
}

func (s *catalogService) ListTypes(ctx context.Context) ([]string, error) {
	out, err := s.questions.ListTypes(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, dataagg.MapError("catalog.list_types", err)
	}
	return out, nil
}

func (s *catalogService) List(ctx context.Context, questionnaireType string) ([]*types.Question, error) {
	return s.list(ctx, "catalog.list", questionnaireType, true)
}

func (s *catalogService) ListAll(ctx context.Context, questionnaireType string) ([]*types.Question, error) {
	return s.list(ctx, "catalog.list_all", questionnaireType, false)
}

func (s *catalogService) list(ctx context.Context, op, questionnaireType string, activeOnly bool) ([]*types.Question, error) {
	qtype, err := requireType(op, questionnaireType)
	if err != nil {
		return nil, err
	}
	out, err := s.questions.ListByType(dbctx.Context{Ctx: ctx}, qtype, activeOnly)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return out, nil
}

func (s *catalogService) Get(ctx context.Context, id uuid.UUID) (*types.Question, error) {
	if id == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, "catalog.get", "question id is required", nil)
	}
	q, err := s.questions.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, dataagg.MapError("catalog.get", err)
	}
	if q == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, "catalog.get", "question not found", nil)
	}
	return q, nil
}

func (s *catalogService) Create(ctx context.Context, in domainagg.CreateQuestionInput) (*types.Question, error) {
	q, err := s.catalog.CreateQuestion(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("question created", "question_id", q.ID, "questionnaire_type", q.QuestionnaireType, "order_index", q.OrderIndex)
	return q, nil
}

func (s *catalogService) Update(ctx context.Context, id uuid.UUID, patch types.QuestionPatch) (*types.Question, error) {
	return s.catalog.UpdateQuestion(ctx, domainagg.UpdateQuestionInput{QuestionID: id, Patch: patch})
}

func (s *catalogService) Delete(ctx context.Context, id uuid.UUID) (domainagg.DeleteQuestionResult, error) {
	res, err := s.catalog.DeleteQuestion(ctx, domainagg.DeleteQuestionInput{QuestionID: id})
	if err != nil {
		return res, err
	}
	s.log.Info("question deleted", "question_id", id, "questionnaire_type", res.QuestionnaireType, "rewritten", res.Rewritten)
	return res, nil
}

func (s *catalogService) ListTopics(ctx context.Context, activeOnly bool) ([]*types.Topic, error) {
	out, err := s.topics.List(dbctx.Context{Ctx: ctx}, activeOnly)
	if err != nil {
		return nil, dataagg.MapError("catalog.list_topics", err)
	}
	return out, nil
}

func (s *catalogService) CreateTopic(ctx context.Context, name, description string) (*types.Topic, error) {
	const op = "catalog.create_topic"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "topic name is required", nil)
	}
	now := s.now().UTC()
	rows, err := s.topics.Create(dbctx.Context{Ctx: ctx}, []*types.Topic{{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}})
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return rows[0], nil
}

func (s *catalogService) ListLocations(ctx context.Context, activeOnly bool) ([]*types.Location, error) {
	out, err := s.locations.List(dbctx.Context{Ctx: ctx}, activeOnly)
	if err != nil {
		return nil, dataagg.MapError("catalog.list_locations", err)
	}
	return out, nil
}

func (s *catalogService) CreateLocation(ctx context.Context, name, description string) (*types.Location, error) {
	const op = "catalog.create_location"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "location name is required", nil)
	}
	now := s.now().UTC()
	rows, err := s.locations.Create(dbctx.Context{Ctx: ctx}, []*types.Location{{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}})
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return rows[0], nil
}
