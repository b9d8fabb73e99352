package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	types "github.com/yungbote/branchaudit-backend/internal/domain"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
)

type CatalogAggregateDeps struct {
	Base BaseDeps

	Questions repos.QuestionRepo
}

type catalogAggregate struct {
	deps CatalogAggregateDeps
}

func NewCatalogAggregate(deps CatalogAggregateDeps) domainagg.CatalogAggregate {
	deps.Base = deps.Base.withDefaults()
	return &catalogAggregate{deps: deps}
}

func (a *catalogAggregate) Contract() domainagg.Contract {
	return domainagg.CatalogAggregateContract
}

func (a *catalogAggregate) CreateQuestion(ctx context.Context, in domainagg.CreateQuestionInput) (*audit.Question, error) {
	op := domainagg.CatalogAggregateContract.Op("create_question")
	qtype := strings.TrimSpace(in.QuestionnaireType)
	text := strings.TrimSpace(in.Text)
	if qtype == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing questionnaire_type", nil)
	}
	if err := validateQuestionShape(op, text, in.Type, in.Choices); err != nil {
		return nil, err
	}
	if in.MaxScore < 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "max_score must be >= 0", nil)
	}
	if a.deps.Questions == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "catalog aggregate repos not configured", nil)
	}

	var out *audit.Question
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.deps.Questions.LockOrder(dbc, qtype); err != nil {
			return err
		}
		n, err := a.deps.Questions.CountActive(dbc, qtype)
		if err != nil {
			return err
		}
		q := &types.Question{
			QuestionnaireType: qtype,
			Text:              text,
			Type:              in.Type,
			Choices:           cleanStrings(in.Choices),
			TopicID:           nonNilID(in.TopicID),
			LocationID:        nonNilID(in.LocationID),
			MaxScore:          in.MaxScore,
			OrderIndex:        n,
			IsActive:          true,
			IsRequired:        in.IsRequired,
		}
		created, err := a.deps.Questions.Create(dbc, []*types.Question{q})
		if err != nil {
			return err
		}
		out = created[0]
		return nil
	})
	return out, err
}

func (a *catalogAggregate) UpdateQuestion(ctx context.Context, in domainagg.UpdateQuestionInput) (*audit.Question, error) {
	op := domainagg.CatalogAggregateContract.Op("update_question")
	if in.QuestionID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing question_id", nil)
	}
	if a.deps.Questions == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "catalog aggregate repos not configured", nil)
	}

	var out *audit.Question
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		cur, err := a.deps.Questions.GetByID(dbc, in.QuestionID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("question not found: %s", in.QuestionID), nil)
		}

		text := cur.Text
		if in.Patch.Text != nil {
			text = strings.TrimSpace(*in.Patch.Text)
		}
		qt := cur.Type
		if in.Patch.Type != nil {
			qt = *in.Patch.Type
		}
		choices := []string(cur.Choices)
		if in.Patch.Choices != nil {
			choices = *in.Patch.Choices
		}
		if err := validateQuestionShape(op, text, qt, choices); err != nil {
			return err
		}
		if in.Patch.MaxScore != nil && *in.Patch.MaxScore < 0 {
			return domainagg.NewError(domainagg.CodeValidation, op, "max_score must be >= 0", nil)
		}

		fields := in.Patch.Fields()
		if in.Patch.Choices != nil {
			fields["choices"] = datatypes.JSONSlice[string](cleanStrings(*in.Patch.Choices))
		}
		toggled := in.Patch.IsActive != nil && *in.Patch.IsActive != cur.IsActive
		if toggled {
			if err := a.deps.Questions.LockOrder(dbc, cur.QuestionnaireType); err != nil {
				return err
			}
		}
		if toggled && *in.Patch.IsActive {
			n, err := a.deps.Questions.CountActive(dbc, cur.QuestionnaireType)
			if err != nil {
				return err
			}
			fields["order_index"] = n
		}
		if len(fields) > 0 {
			if err := a.deps.Questions.UpdateFields(dbc, cur.ID, fields); err != nil {
				return err
			}
		}
		if toggled && !*in.Patch.IsActive {
			if _, err := a.compact(dbc, cur.QuestionnaireType); err != nil {
				return err
			}
		}

		out, err = a.deps.Questions.GetByID(dbc, cur.ID)
		return err
	})
	return out, err
}

func (a *catalogAggregate) DeleteQuestion(ctx context.Context, in domainagg.DeleteQuestionInput) (domainagg.DeleteQuestionResult, error) {
	op := domainagg.CatalogAggregateContract.Op("delete_question")
	var out domainagg.DeleteQuestionResult
	if in.QuestionID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing question_id", nil)
	}
	if a.deps.Questions == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "catalog aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		cur, err := a.deps.Questions.GetByID(dbc, in.QuestionID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("question not found: %s", in.QuestionID), nil)
		}
		if err := a.deps.Questions.LockOrder(dbc, cur.QuestionnaireType); err != nil {
			return err
		}
		if err := a.deps.Questions.FullDeleteByID(dbc, cur.ID); err != nil {
			return err
		}
		rewritten, err := a.compact(dbc, cur.QuestionnaireType)
		if err != nil {
			return err
		}
		out = domainagg.DeleteQuestionResult{
			QuestionnaireType: cur.QuestionnaireType,
			Remaining:         rewritten,
			Rewritten:         rewritten,
		}
		return nil
	})
	return out, err
}

func (a *catalogAggregate) SetOrderIndex(ctx context.Context, in domainagg.SetOrderIndexInput) error {
	op := domainagg.CatalogAggregateContract.Op("set_order_index")
	if in.QuestionID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing question_id", nil)
	}
	if in.OrderIndex < 0 {
		return domainagg.NewError(domainagg.CodeValidation, op, "order_index must be >= 0", nil)
	}
	if a.deps.Questions == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "catalog aggregate repos not configured", nil)
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		return a.deps.Questions.SetOrderIndex(dbc, in.QuestionID, in.OrderIndex)
	})
}

func (a *catalogAggregate) CompactOrder(ctx context.Context, questionnaireType string) ([]*audit.Question, error) {
	op := domainagg.CatalogAggregateContract.Op("compact_order")
	qtype := strings.TrimSpace(questionnaireType)
	if qtype == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing questionnaire_type", nil)
	}
	if a.deps.Questions == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "catalog aggregate repos not configured", nil)
	}
	var out []*audit.Question
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.deps.Questions.LockOrder(dbc, qtype); err != nil {
			return err
		}
		if _, err := a.compact(dbc, qtype); err != nil {
			return err
		}
		var err error
		out, err = a.deps.Questions.ListByType(dbc, qtype, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// compact rewrites every active question of qtype to its position in the
// current order. It returns the number of rows written.
func (a *catalogAggregate) compact(dbc dbctx.Context, qtype string) (int, error) {
	active, err := a.deps.Questions.ListByType(dbc, qtype, true)
	if err != nil {
		return 0, err
	}
	for i, q := range active {
		if err := a.deps.Questions.SetOrderIndex(dbc, q.ID, i); err != nil {
			return 0, err
		}
	}
	return len(active), nil
}

func validateQuestionShape(op, text string, qt audit.QuestionType, choices []string) error {
	if text == "" {
		return domainagg.NewError(domainagg.CodeValidation, op, "question text is required", nil)
	}
	if !qt.Valid() {
		return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown question type %q", qt), nil)
	}
	if qt == audit.QuestionTypeMultipleChoice && len(cleanStrings(choices)) == 0 {
		return domainagg.NewError(domainagg.CodeValidation, op, "multiple_choice requires at least one choice", nil)
	}
	return nil
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func nonNilID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	v := *id
	return &v
}
