package aggregates

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	repotest "github.com/yungbote/branchaudit-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
)

func newTestCatalog(t *testing.T) (domainagg.CatalogAggregate, repos.QuestionRepo) {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	questions := repos.NewQuestionRepo(db, log, nil)
	agg := NewCatalogAggregate(CatalogAggregateDeps{
		Base:      BaseDeps{DB: db, Log: log},
		Questions: questions,
	})
	return agg, questions
}

func activeOrder(t *testing.T, questions repos.QuestionRepo, qtype string) ([]string, []int) {
	t.Helper()
	rows, err := questions.ListByType(dbctx.Of(context.Background()), qtype, true)
	if err != nil {
		t.Fatalf("ListByType: %v", err)
	}
	texts := make([]string, 0, len(rows))
	idx := make([]int, 0, len(rows))
	for _, r := range rows {
		texts = append(texts, r.Text)
		idx = append(idx, r.OrderIndex)
	}
	return texts, idx
}

func assertDense(t *testing.T, idx []int) {
	t.Helper()
	for i, v := range idx {
		if v != i {
			t.Fatalf("order_index not dense: %v", idx)
		}
	}
}

func TestCatalogCreateAppendsDense(t *testing.T) {
	agg, questions := newTestCatalog(t)
	ctx := context.Background()

	for _, text := range []string{"A", "B", "C"} {
		q, err := agg.CreateQuestion(ctx, domainagg.CreateQuestionInput{
			QuestionnaireType: "store",
			Text:              text,
			Type:              audit.QuestionTypeRating1To5,
			MaxScore:          5,
		})
		if err != nil {
			t.Fatalf("CreateQuestion(%s): %v", text, err)
		}
		if !q.IsActive {
			t.Fatalf("CreateQuestion: expected active question")
		}
	}
	texts, idx := activeOrder(t, questions, "store")
	if len(texts) != 3 || texts[0] != "A" || texts[2] != "C" {
		t.Fatalf("unexpected order: %v", texts)
	}
	assertDense(t, idx)
}

func TestCatalogCreateValidation(t *testing.T) {
	agg, _ := newTestCatalog(t)
	ctx := context.Background()

	cases := []domainagg.CreateQuestionInput{
		{QuestionnaireType: "store", Text: "  ", Type: audit.QuestionTypeText},
		{QuestionnaireType: "store", Text: "x", Type: audit.QuestionType("slider")},
		{QuestionnaireType: "store", Text: "x", Type: audit.QuestionTypeMultipleChoice, Choices: []string{" "}},
		{QuestionnaireType: "", Text: "x", Type: audit.QuestionTypeText},
	}
	for i, in := range cases {
		_, err := agg.CreateQuestion(ctx, in)
		if !domainagg.IsCode(err, domainagg.CodeValidation) {
			t.Fatalf("case %d: expected validation, got %v", i, err)
		}
	}
}

func TestCatalogDeleteCompactsAll(t *testing.T) {
	agg, questions := newTestCatalog(t)
	ctx := context.Background()

	ids := map[string]uuid.UUID{}
	for _, text := range []string{"A", "B", "C", "D"} {
		q, err := agg.CreateQuestion(ctx, domainagg.CreateQuestionInput{QuestionnaireType: "store", Text: text, Type: audit.QuestionTypeText})
		if err != nil {
			t.Fatalf("CreateQuestion: %v", err)
		}
		ids[text] = q.ID
	}

	res, err := agg.DeleteQuestion(ctx, domainagg.DeleteQuestionInput{QuestionID: ids["B"]})
	if err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	if res.Remaining != 3 || res.Rewritten != 3 || res.QuestionnaireType != "store" {
		t.Fatalf("unexpected delete result: %+v", res)
	}
	texts, idx := activeOrder(t, questions, "store")
	if len(texts) != 3 || texts[0] != "A" || texts[1] != "C" || texts[2] != "D" {
		t.Fatalf("unexpected order after delete: %v", texts)
	}
	assertDense(t, idx)

	_, err = agg.DeleteQuestion(ctx, domainagg.DeleteQuestionInput{QuestionID: ids["B"]})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("DeleteQuestion(again): expected not_found, got %v", err)
	}
}

func TestCatalogUpdateKeepsOrder(t *testing.T) {
	agg, questions := newTestCatalog(t)
	ctx := context.Background()

	var created []*audit.Question
	for _, text := range []string{"A", "B", "C"} {
		q, err := agg.CreateQuestion(ctx, domainagg.CreateQuestionInput{QuestionnaireType: "store", Text: text, Type: audit.QuestionTypeText})
		if err != nil {
			t.Fatalf("CreateQuestion: %v", err)
		}
		created = append(created, q)
	}

	newText := "B2"
	updated, err := agg.UpdateQuestion(ctx, domainagg.UpdateQuestionInput{
		QuestionID: created[1].ID,
		Patch:      audit.QuestionPatch{Text: &newText},
	})
	if err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	if updated.Text != "B2" || updated.OrderIndex != 1 {
		t.Fatalf("UpdateQuestion: unexpected %+v", updated)
	}

	off := false
	if _, err := agg.UpdateQuestion(ctx, domainagg.UpdateQuestionInput{QuestionID: created[0].ID, Patch: audit.QuestionPatch{IsActive: &off}}); err != nil {
		t.Fatalf("UpdateQuestion(deactivate): %v", err)
	}
	texts, idx := activeOrder(t, questions, "store")
	if len(texts) != 2 || texts[0] != "B2" || texts[1] != "C" {
		t.Fatalf("unexpected order after deactivate: %v", texts)
	}
	assertDense(t, idx)

	on := true
	back, err := agg.UpdateQuestion(ctx, domainagg.UpdateQuestionInput{QuestionID: created[0].ID, Patch: audit.QuestionPatch{IsActive: &on}})
	if err != nil {
		t.Fatalf("UpdateQuestion(reactivate): %v", err)
	}
	if back.OrderIndex != 2 {
		t.Fatalf("reactivated question should append at the end, got %d", back.OrderIndex)
	}
	_, idx = activeOrder(t, questions, "store")
	assertDense(t, idx)

	_, err = agg.UpdateQuestion(ctx, domainagg.UpdateQuestionInput{QuestionID: uuid.New(), Patch: audit.QuestionPatch{Text: &newText}})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("UpdateQuestion(missing): expected not_found, got %v", err)
	}
}

func TestCatalogSetOrderIndexRateLimited(t *testing.T) {
	db := repotest.DB(t)
	log := repotest.Logger(t)
	quota := repos.NewWriteQuota(0.001, 1)
	questions := repos.NewQuestionRepo(db, log, quota)
	agg := NewCatalogAggregate(CatalogAggregateDeps{
		Base:      BaseDeps{DB: db, Log: log, Quota: quota},
		Questions: questions,
	})
	seeded := repotest.SeedQuestions(t, context.Background(), db, "store", "A", "B")

	if err := agg.SetOrderIndex(context.Background(), domainagg.SetOrderIndexInput{QuestionID: seeded[0].ID, OrderIndex: 1}); err != nil {
		t.Fatalf("SetOrderIndex(first): %v", err)
	}
	err := agg.SetOrderIndex(context.Background(), domainagg.SetOrderIndexInput{QuestionID: seeded[1].ID, OrderIndex: 0})
	if !domainagg.IsCode(err, domainagg.CodeRateLimited) {
		t.Fatalf("SetOrderIndex(second): expected rate_limited, got %v", err)
	}
}

func TestCatalogCompactOrderRepairsCollisions(t *testing.T) {
	agg, questions := newTestCatalog(t)
	ctx := context.Background()
	var ids []uuid.UUID
	for _, text := range []string{"A", "B", "C", "D"} {
		q, err := agg.CreateQuestion(ctx, domainagg.CreateQuestionInput{QuestionnaireType: "store", Text: text, Type: audit.QuestionTypeText})
		if err != nil {
			t.Fatalf("CreateQuestion(%s): %v", text, err)
		}
		ids = append(ids, q.ID)
	}
	// a half-applied drag of A to the end: B already moved to 0
	if err := agg.SetOrderIndex(ctx, domainagg.SetOrderIndexInput{QuestionID: ids[1], OrderIndex: 0}); err != nil {
		t.Fatalf("SetOrderIndex: %v", err)
	}

	out, err := agg.CompactOrder(ctx, "store")
	if err != nil {
		t.Fatalf("CompactOrder: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("want 4 questions, got %d", len(out))
	}
	for i, q := range out {
		if q.OrderIndex != i {
			t.Fatalf("returned order not dense at %d: %d", i, q.OrderIndex)
		}
	}
	_, idx := activeOrder(t, questions, "store")
	assertDense(t, idx)

	if _, err := agg.CompactOrder(ctx, " "); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("blank type: want validation, got %v", err)
	}
}

func TestCatalogConcurrentCreatesStayDense(t *testing.T) {
	agg, questions := newTestCatalog(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := agg.CreateQuestion(ctx, domainagg.CreateQuestionInput{
				QuestionnaireType: "store",
				Text:              fmt.Sprintf("Q%d", i),
				Type:              audit.QuestionTypeText,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("CreateQuestion: %v", err)
		}
	}
	texts, idx := activeOrder(t, questions, "store")
	if len(texts) != 8 {
		t.Fatalf("want 8 questions, got %v", texts)
	}
	assertDense(t, idx)
}
