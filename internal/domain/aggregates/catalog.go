package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
)

var CatalogAggregateContract = Contract{
	Name:      "catalog",
	Tables:    []string{"question"},
	Invariant: "active questions of a questionnaire type hold order_index 0..n-1 without gaps",
}

// CatalogAggregate owns the live question catalog.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeRateLimited, CodeInternal.
type CatalogAggregate interface {
	Aggregate

	// CreateQuestion appends an active question at index = current active count.
	CreateQuestion(ctx context.Context, in CreateQuestionInput) (*audit.Question, error)

	// UpdateQuestion applies a partial update. Ordering is never taken from the
	// patch; toggling is_active moves the question out of or to the end of the
	// active order and re-densifies the rest.
	UpdateQuestion(ctx context.Context, in UpdateQuestionInput) (*audit.Question, error)

	// DeleteQuestion removes the question and rewrites order_index of every
	// remaining active question of the same type to 0..N-1.
	DeleteQuestion(ctx context.Context, in DeleteQuestionInput) (DeleteQuestionResult, error)

	// SetOrderIndex persists one reorder write.
	SetOrderIndex(ctx context.Context, in SetOrderIndexInput) error

	// CompactOrder rewrites the active questions of a type to 0..N-1 in their
	// stored order and returns them.
	CompactOrder(ctx context.Context, questionnaireType string) ([]*audit.Question, error)
}

type CreateQuestionInput struct {
	QuestionnaireType string
	Text              string
	Type              audit.QuestionType
	Choices           []string
	TopicID           *uuid.UUID
	LocationID        *uuid.UUID
	MaxScore          int
	IsRequired        bool
}

type UpdateQuestionInput struct {
	QuestionID uuid.UUID
	Patch      audit.QuestionPatch
}

type DeleteQuestionInput struct {
	QuestionID uuid.UUID
}

type DeleteQuestionResult struct {
	QuestionnaireType string
	Remaining         int
	Rewritten         int
}

type SetOrderIndexInput struct {
	QuestionID uuid.UUID
	OrderIndex int
}
