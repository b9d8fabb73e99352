package services

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	repotest "github.com/yungbote/branchaudit-backend/internal/data/repos/testutil"
	types "github.com/yungbote/branchaudit-backend/internal/domain"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
)

// flakyCatalog rejects SetOrderIndex with a rate-limit error a fixed number of
// times per question (-1 means forever).
type flakyCatalog struct {
	domainagg.CatalogAggregate
	mu       sync.Mutex
	failures map[uuid.UUID]int
	calls    int
}

func (c *flakyCatalog) SetOrderIndex(ctx context.Context, in domainagg.SetOrderIndexInput) error {
	c.mu.Lock()
	c.calls++
	n := c.failures[in.QuestionID]
	if n != 0 {
		if n > 0 {
			c.failures[in.QuestionID] = n - 1
		}
		c.mu.Unlock()
		return domainagg.NewError(domainagg.CodeRateLimited, "set_order_index", "quota exhausted", repos.ErrRateLimited)
	}
	c.mu.Unlock()
	return c.CatalogAggregate.SetOrderIndex(ctx, in)
}

func texts(list []*types.Question) []string {
	out := make([]string, 0, len(list))
	for _, q := range list {
		out = append(out, q.Text)
	}
	return out
}

func storedOrder(t *testing.T, f *fixture, qtype string) []*types.Question {
	t.Helper()
	list, err := f.questions.ListByType(dbctx.Context{Ctx: context.Background()}, qtype, true)
	if err != nil {
		t.Fatalf("ListByType: %v", err)
	}
	return list
}

func TestReorderMovesFirstToFourth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seeded := repotest.SeedQuestions(t, ctx, f.db, "store", "A", "B", "C", "D", "E")
	byText := map[string]uuid.UUID{}
	for _, q := range seeded {
		byText[q.Text] = q.ID
	}

	res, err := f.reorder(f.catalogAgg).Reorder(ctx, ReorderInput{QuestionnaireType: "store", From: 0, To: 3})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if res.State != ReorderCommitted {
		t.Fatalf("state: want %q, got %q", ReorderCommitted, res.State)
	}
	want := []ReorderWrite{
		{QuestionID: byText["B"], From: 1, To: 0},
		{QuestionID: byText["C"], From: 2, To: 1},
		{QuestionID: byText["D"], From: 3, To: 2},
		{QuestionID: byText["A"], From: 0, To: 3},
	}
	if !reflect.DeepEqual(res.Writes, want) {
		t.Fatalf("writes: want %+v, got %+v", want, res.Writes)
	}
	if got := texts(storedOrder(t, f, "store")); !reflect.DeepEqual(got, []string{"B", "C", "D", "A", "E"}) {
		t.Fatalf("stored order: %v", got)
	}
	for i, q := range storedOrder(t, f, "store") {
		if q.OrderIndex != i {
			t.Fatalf("order_index not dense at %d: %d", i, q.OrderIndex)
		}
	}
	waits := f.sleeper.Waits()
	if len(waits) != 3 {
		t.Fatalf("want 3 inter-item waits, got %v", waits)
	}
	for _, w := range waits {
		if w != 500*time.Millisecond {
			t.Fatalf("unexpected wait %v", w)
		}
	}
}

func TestReorderSameIndexIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repotest.SeedQuestions(t, ctx, f.db, "store", "A", "B", "C")
	flaky := &flakyCatalog{CatalogAggregate: f.catalogAgg, failures: map[uuid.UUID]int{}}

	res, err := f.reorder(flaky).Reorder(ctx, ReorderInput{QuestionnaireType: "store", From: 1, To: 1})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if res.State != ReorderIdle || len(res.Writes) != 0 || flaky.calls != 0 {
		t.Fatalf("want idle with zero writes, got state=%q writes=%d calls=%d", res.State, len(res.Writes), flaky.calls)
	}
}

func TestReorderRejectsOutOfRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repotest.SeedQuestions(t, ctx, f.db, "store", "A", "B")

	for _, in := range []ReorderInput{
		{QuestionnaireType: "store", From: -1, To: 0},
		{QuestionnaireType: "store", From: 0, To: 2},
		{QuestionnaireType: "", From: 0, To: 1},
	} {
		if _, err := f.reorder(f.catalogAgg).Reorder(ctx, in); !domainagg.IsCode(err, domainagg.CodeValidation) {
			t.Fatalf("%+v: want validation, got %v", in, err)
		}
	}
}

func TestReorderRetriesRateLimitedWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seeded := repotest.SeedQuestions(t, ctx, f.db, "store", "A", "B", "C")
	flaky := &flakyCatalog{CatalogAggregate: f.catalogAgg, failures: map[uuid.UUID]int{seeded[1].ID: 2}}

	res, err := f.reorder(flaky).Reorder(ctx, ReorderInput{QuestionnaireType: "store", From: 2, To: 0})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if res.State != ReorderCommitted || res.Retries != 2 {
		t.Fatalf("want committed after 2 retries, got state=%q retries=%d", res.State, res.Retries)
	}
	if got := texts(storedOrder(t, f, "store")); !reflect.DeepEqual(got, []string{"C", "A", "B"}) {
		t.Fatalf("stored order: %v", got)
	}
	got := f.sleeper.Waits()
	want := []time.Duration{500 * time.Millisecond, 500 * time.Millisecond, 2 * time.Second, 4 * time.Second}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("waits: want %v, got %v", want, got)
	}
}

func TestReorderExhaustedRetriesRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seeded := repotest.SeedQuestions(t, ctx, f.db, "store", "A", "B", "C", "D")
	flaky := &flakyCatalog{CatalogAggregate: f.catalogAgg, failures: map[uuid.UUID]int{seeded[2].ID: -1}}
	svc := f.reorder(flaky)

	res, err := svc.Reorder(ctx, ReorderInput{QuestionnaireType: "store", From: 0, To: 3})
	if !domainagg.IsCode(err, domainagg.CodeSystemBusy) {
		t.Fatalf("want system_busy, got %v", err)
	}
	if !domainagg.HasCode(err, domainagg.CodeRateLimited) {
		t.Fatalf("system_busy should wrap the rate-limit cause: %v", err)
	}
	if res == nil || res.State != ReorderRolledBack {
		t.Fatalf("want rolled_back result, got %+v", res)
	}
	if res.Applied != 1 {
		t.Fatalf("want 1 applied write before abort, got %d", res.Applied)
	}
	stored := storedOrder(t, f, "store")
	if !reflect.DeepEqual(texts(res.Order), texts(stored)) {
		t.Fatalf("result order should be the reloaded store order: %v vs %v", texts(res.Order), texts(stored))
	}
	for i, q := range stored {
		if q.OrderIndex != i {
			t.Fatalf("order_index not dense after resync at %d: %d (%v)", i, q.OrderIndex, texts(stored))
		}
	}

	var backoffs []time.Duration
	for _, w := range f.sleeper.Waits() {
		if w != 500*time.Millisecond {
			backoffs = append(backoffs, w)
		}
	}
	if !reflect.DeepEqual(backoffs, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}) {
		t.Fatalf("backoffs: %v", backoffs)
	}

	st, err := svc.Status(ctx, "store")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.InProgress {
		t.Fatalf("lock should be released after rollback: %+v", st)
	}
}

func TestReorderSingleFlight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repotest.SeedQuestions(t, ctx, f.db, "store", "A", "B")
	svc := f.reorder(f.catalogAgg)

	lease, err := f.locker.Acquire(ctx, reorderLockKey("store"), ReorderPhaseReordering, time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := svc.Reorder(ctx, ReorderInput{QuestionnaireType: "store", From: 0, To: 1}); !domainagg.IsCode(err, domainagg.CodeReorderInProgress) {
		t.Fatalf("want reorder_in_progress, got %v", err)
	}
	st, err := svc.Status(ctx, "store")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.InProgress || st.Phase != ReorderPhaseReordering {
		t.Fatalf("status: %+v", st)
	}

	// other questionnaire types are independent
	repotest.SeedQuestions(t, ctx, f.db, "kitchen", "X", "Y")
	if _, err := svc.Reorder(ctx, ReorderInput{QuestionnaireType: "kitchen", From: 0, To: 1}); err != nil {
		t.Fatalf("kitchen reorder: %v", err)
	}

	if err := f.locker.Release(ctx, lease); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := svc.Reorder(ctx, ReorderInput{QuestionnaireType: "store", From: 0, To: 1}); err != nil {
		t.Fatalf("reorder after release: %v", err)
	}
}

func TestPlanReorderWritesOnlyChangedRowsInRange(t *testing.T) {
	const n = 6
	for from := 0; from < n; from++ {
		for to := 0; to < n; to++ {
			list := make([]*types.Question, n)
			for i := range list {
				list[i] = &types.Question{ID: uuid.New(), OrderIndex: i}
			}
			plan, err := PlanReorder(list, from, to)
			if err != nil {
				t.Fatalf("PlanReorder(%d,%d): %v", from, to, err)
			}
			lo, hi := from, to
			if lo > hi {
				lo, hi = hi, lo
			}
			if from == to && len(plan.Writes) != 0 {
				t.Fatalf("(%d,%d): no-op produced writes", from, to)
			}
			if len(plan.Writes) > hi-lo+1 {
				t.Fatalf("(%d,%d): %d writes exceeds range", from, to, len(plan.Writes))
			}
			if plan.Order[to] != list[from] {
				t.Fatalf("(%d,%d): moved item not at destination", from, to)
			}
			for _, w := range plan.Writes {
				if w.To < lo || w.To > hi || w.From == w.To {
					t.Fatalf("(%d,%d): bad write %+v", from, to, w)
				}
			}
		}
	}
}

func TestPlanReorderRepairsStaleIndices(t *testing.T) {
	list := []*types.Question{
		{ID: uuid.New(), Text: "A", OrderIndex: 0},
		{ID: uuid.New(), Text: "B", OrderIndex: 0},
		{ID: uuid.New(), Text: "C", OrderIndex: 2},
	}
	plan, err := PlanReorder(list, 2, 1)
	if err != nil {
		t.Fatalf("PlanReorder: %v", err)
	}
	if got := texts(plan.Order); !reflect.DeepEqual(got, []string{"A", "C", "B"}) {
		t.Fatalf("order: %v", got)
	}
	if len(plan.Writes) != 2 {
		t.Fatalf("want 2 writes, got %+v", plan.Writes)
	}
}

func TestReorderRenewsLeaseAcrossLongRetries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	names := make([]string, 20)
	for i := range names {
		names[i] = fmt.Sprintf("Q%02d", i)
	}
	seeded := repotest.SeedQuestions(t, ctx, f.db, "store", names...)
	failures := map[uuid.UUID]int{}
	for _, q := range seeded {
		failures[q.ID] = 3
	}
	flaky := &flakyCatalog{CatalogAggregate: f.catalogAgg, failures: failures}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.locker.WithClock(func() time.Time { return now })
	var elapsed time.Duration
	stolen := 0
	sleep := func(ctx context.Context, d time.Duration) error {
		now = now.Add(d)
		elapsed += d
		if lease, err := f.locker.Acquire(ctx, reorderLockKey("store"), ReorderPhaseReordering, time.Minute); err == nil {
			stolen++
			_ = f.locker.Release(ctx, lease)
		}
		return nil
	}
	svc := NewQuestionReorderService(f.log, f.questions, flaky, f.locker, f.metrics, DefaultReorderConfig(), sleep)

	res, err := svc.Reorder(ctx, ReorderInput{QuestionnaireType: "store", From: 0, To: 19})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if elapsed <= DefaultReorderConfig().LockTTL {
		t.Fatalf("reorder should outlast one lease TTL, took %v", elapsed)
	}
	if stolen != 0 {
		t.Fatalf("lease was free %d times during the reorder", stolen)
	}
	if res.State != ReorderCommitted || res.Applied != 20 {
		t.Fatalf("want committed with 20 writes, got state=%q applied=%d", res.State, res.Applied)
	}
}

func TestReorderStopsWhenLeaseIsLost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repotest.SeedQuestions(t, ctx, f.db, "store", "A", "B", "C", "D")

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.locker.WithClock(func() time.Time { return now })
	intruded := false
	sleep := func(ctx context.Context, d time.Duration) error {
		if !intruded {
			intruded = true
			now = now.Add(DefaultReorderConfig().LockTTL + time.Second)
			if _, err := f.locker.Acquire(ctx, reorderLockKey("store"), ReorderPhaseReordering, time.Hour); err != nil {
				t.Fatalf("intruder Acquire: %v", err)
			}
		}
		return nil
	}
	svc := NewQuestionReorderService(f.log, f.questions, f.catalogAgg, f.locker, f.metrics, DefaultReorderConfig(), sleep)

	res, err := svc.Reorder(ctx, ReorderInput{QuestionnaireType: "store", From: 0, To: 3})
	if !domainagg.IsCode(err, domainagg.CodeReorderInProgress) {
		t.Fatalf("want reorder_in_progress, got %v", err)
	}
	if res == nil || res.State != ReorderRolledBack || res.Applied != 1 {
		t.Fatalf("want rolled_back after 1 write, got %+v", res)
	}
	st, err := svc.Status(ctx, "store")
	if err != nil || !st.InProgress {
		t.Fatalf("intruder lease must survive: %+v %v", st, err)
	}
}
