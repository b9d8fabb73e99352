package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	types "github.com/yungbote/branchaudit-backend/internal/domain"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/observability"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
	"github.com/yungbote/branchaudit-backend/internal/platform/lock"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

// ReorderState is the optimistic state of a reorder as seen by the caller.
type ReorderState string

const (
	ReorderIdle       ReorderState = "idle"
	ReorderPending    ReorderState = "pending"
	ReorderCommitted  ReorderState = "committed"
	ReorderRolledBack ReorderState = "rolled_back"
)

// Coordinator phases published on the single-flight lease.
const (
	ReorderPhaseIdle       = "idle"
	ReorderPhaseReordering = "reordering"
	ReorderPhaseReloading  = "reloading"
)

type ReorderConfig struct {
	ItemDelay   time.Duration
	BackoffBase time.Duration
	BackoffMax  time.Duration
	MaxRetries  int
	LockTTL     time.Duration
}

func DefaultReorderConfig() ReorderConfig {
	return ReorderConfig{
		ItemDelay:   500 * time.Millisecond,
		BackoffBase: 2 * time.Second,
		BackoffMax:  10 * time.Second,
		MaxRetries:  3,
		LockTTL:     2 * time.Minute,
	}
}

func (c ReorderConfig) withDefaults() ReorderConfig {
	def := DefaultReorderConfig()
	if c.ItemDelay < 0 {
		c.ItemDelay = 0
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = def.BackoffBase
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = def.BackoffMax
	}
	if c.BackoffMax < c.BackoffBase {
		c.BackoffMax = c.BackoffBase
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.LockTTL <= 0 {
		c.LockTTL = def.LockTTL
	}
	return c
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ReorderWrite is one persisted order_index change.
type ReorderWrite struct {
	QuestionID uuid.UUID `json:"question_id"`
	From       int       `json:"from"`
	To         int       `json:"to"`
}

// ReorderPlan is the spliced order plus the minimal set of writes that
// realises it.
type ReorderPlan struct {
	Order  []*types.Question
	Writes []ReorderWrite
}

// PlanReorder moves the item at position from to position to. Only rows inside
// [min(from,to), max(from,to)] whose stored order_index differs from their new
// position are written.
func PlanReorder(list []*types.Question, from, to int) (ReorderPlan, error) {
	n := len(list)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ReorderPlan{}, domainagg.NewError(domainagg.CodeValidation, "reorder",
			fmt.Sprintf("indices %d->%d out of range for %d questions", from, to, n), nil)
	}
	order := make([]*types.Question, 0, n)
	order = append(order, list...)
	if from == to {
		return ReorderPlan{Order: order}, nil
	}

	moved := order[from]
	order = append(order[:from], order[from+1:]...)
	order = append(order[:to], append([]*types.Question{moved}, order[to:]...)...)

	lo, hi := from, to
	if lo > hi {
		lo, hi = hi, lo
	}
	writes := make([]ReorderWrite, 0, hi-lo+1)
	for k := lo; k <= hi; k++ {
		q := order[k]
		if q.OrderIndex != k {
			writes = append(writes, ReorderWrite{QuestionID: q.ID, From: q.OrderIndex, To: k})
		}
	}
	return ReorderPlan{Order: order, Writes: writes}, nil
}

type ReorderInput struct {
	QuestionnaireType string
	From              int
	To                int
}

type ReorderResult struct {
	QuestionnaireType string            `json:"questionnaire_type"`
	State             ReorderState      `json:"state"`
	Writes            []ReorderWrite    `json:"writes"`
	Applied           int               `json:"applied"`
	Retries           int               `json:"retries"`
	Order             []*types.Question `json:"order"`
}

type ReorderStatus struct {
	QuestionnaireType string `json:"questionnaire_type"`
	Phase             string `json:"phase"`
	InProgress        bool   `json:"in_progress"`
}

type QuestionReorderService interface {
	Reorder(ctx context.Context, in ReorderInput) (*ReorderResult, error)
	Status(ctx context.Context, questionnaireType string) (*ReorderStatus, error)
}

type questionReorderService struct {
	log       *logger.Logger
	questions repos.QuestionRepo
	catalog   domainagg.CatalogAggregate
	locker    lock.Locker
	metrics   *observability.Metrics
	cfg       ReorderConfig
	sleep     Sleeper
}

func NewQuestionReorderService(
	log *logger.Logger,
	questions repos.QuestionRepo,
	catalog domainagg.CatalogAggregate,
	locker lock.Locker,
	metrics *observability.Metrics,
	cfg ReorderConfig,
	sleep Sleeper,
) QuestionReorderService {
	if sleep == nil {
		sleep = contextSleep
	}
	return &questionReorderService{
		log:       log.With("service", "QuestionReorderService"),
		questions: questions,
		catalog:   catalog,
		locker:    locker,
		metrics:   metrics,
		cfg:       cfg.withDefaults(),
		sleep:     sleep,
	}
}

func reorderLockKey(questionnaireType string) string {
	return "reorder:" + questionnaireType
}

func (s *questionReorderService) Reorder(ctx context.Context, in ReorderInput) (*ReorderResult, error) {
	qtype := strings.TrimSpace(in.QuestionnaireType)
	if qtype == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, "reorder", "questionnaire type is required", nil)
	}
	ctx, span := observability.StartSpan(ctx, "reorder", "questionnaire_type", qtype)
	defer span.End()

	lease, err := s.locker.Acquire(ctx, reorderLockKey(qtype), ReorderPhaseReordering, s.cfg.LockTTL)
	if errors.Is(err, lock.ErrHeld) {
		s.metrics.IncReorderOutcome("in_progress")
		return nil, domainagg.NewError(domainagg.CodeReorderInProgress, "reorder", "a reorder of "+qtype+" is already running", nil)
	}
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, "reorder", err)
	}
	defer func() {
		if rerr := s.locker.Release(context.WithoutCancel(ctx), lease); rerr != nil && !errors.Is(rerr, lock.ErrNotHeld) {
			s.log.Warn("reorder lock release failed", "questionnaire_type", qtype, "error", rerr)
		}
	}()

	dbc := dbctx.Context{Ctx: ctx}
	list, err := s.questions.ListByType(dbc, qtype, true)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, "reorder", err)
	}
	plan, err := PlanReorder(list, in.From, in.To)
	if err != nil {
		return nil, err
	}
	res := &ReorderResult{QuestionnaireType: qtype, State: ReorderIdle, Writes: plan.Writes, Order: plan.Order}
	if len(plan.Writes) == 0 {
		s.metrics.IncReorderOutcome("noop")
		return res, nil
	}

	res.State = ReorderPending
	for i, w := range plan.Writes {
		if i > 0 {
			if err := s.sleep(ctx, s.cfg.ItemDelay); err != nil {
				return s.rollback(ctx, lease, res, err)
			}
		}
		if err := s.renew(ctx, lease); err != nil {
			return s.abandon(ctx, res, err)
		}
		retries, err := s.withRetry(ctx, qtype, "question_id", w.QuestionID, func() error {
			return s.catalog.SetOrderIndex(ctx, domainagg.SetOrderIndexInput{QuestionID: w.QuestionID, OrderIndex: w.To})
		})
		res.Retries += retries
		if err != nil {
			return s.rollback(ctx, lease, res, err)
		}
		res.Applied++
		s.metrics.IncReorderWrite(qtype)
	}

	for k, q := range res.Order {
		q.OrderIndex = k
	}
	res.State = ReorderCommitted
	s.metrics.IncReorderOutcome("committed")
	s.log.For(ctx).Info("reorder committed", "questionnaire_type", qtype, "from", in.From, "to", in.To, "writes", res.Applied, "retries", res.Retries)
	return res, nil
}

// withRetry runs fn, retrying only rate-limit rejections with backoff.
func (s *questionReorderService) withRetry(ctx context.Context, qtype, subjectKey string, subject any, fn func() error) (int, error) {
	retries := 0
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return retries, nil
		}
		if !domainagg.IsCode(err, domainagg.CodeRateLimited) {
			return retries, err
		}
		if attempt >= s.cfg.MaxRetries {
			return retries, domainagg.NewError(domainagg.CodeSystemBusy, "reorder",
				fmt.Sprintf("store still rate limited after %d retries", retries), err)
		}
		d := reorderBackoff(s.cfg.BackoffBase, s.cfg.BackoffMax, attempt+1)
		s.log.Warn("reorder write rate limited; backing off", "questionnaire_type", qtype, subjectKey, subject, "attempt", attempt+1, "backoff", d)
		s.metrics.IncReorderRetry(qtype)
		if err := s.sleep(ctx, d); err != nil {
			return retries, err
		}
		retries++
	}
}

// renew pushes the lease expiry out by LockTTL. A lost lease means another
// reorder may already own the type.
func (s *questionReorderService) renew(ctx context.Context, lease *lock.Lease) error {
	err := s.locker.Extend(context.WithoutCancel(ctx), lease, s.cfg.LockTTL)
	if errors.Is(err, lock.ErrNotHeld) {
		return domainagg.NewError(domainagg.CodeReorderInProgress, "reorder", "reorder lease expired before the writes finished", err)
	}
	if err != nil {
		return domainagg.Wrap(domainagg.CodeInternal, "reorder", err)
	}
	return nil
}

func reorderBackoff(base, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	if d > max || d <= 0 {
		d = max
	}
	return d
}

// rollback discards the optimistic order and resyncs the stored one: the
// partially applied writes are compacted back to 0..N-1.
func (s *questionReorderService) rollback(ctx context.Context, lease *lock.Lease, res *ReorderResult, cause error) (*ReorderResult, error) {
	res.State = ReorderRolledBack
	s.metrics.IncReorderOutcome("rolled_back")
	qtype := res.QuestionnaireType

	rctx := context.WithoutCancel(ctx)
	if err := s.renew(rctx, lease); err != nil {
		s.log.Error("reorder lease lost before resync; order left for the next holder", "questionnaire_type", qtype, "error", err)
		res.Order = s.reload(rctx, qtype)
		return res, reorderError(cause)
	}
	if err := s.locker.SetState(rctx, lease, ReorderPhaseReloading); err != nil {
		s.log.Warn("reorder lock state update failed", "questionnaire_type", qtype, "error", err)
	}

	var compacted []*types.Question
	_, err := s.withRetry(rctx, qtype, "phase", ReorderPhaseReloading, func() error {
		var cerr error
		compacted, cerr = s.catalog.CompactOrder(rctx, qtype)
		return cerr
	})
	if err != nil {
		s.log.Error("reorder resync failed", "questionnaire_type", qtype, "error", err)
		res.Order = s.reload(rctx, qtype)
	} else {
		res.Order = compacted
	}
	s.log.Warn("reorder rolled back", "questionnaire_type", qtype, "applied", res.Applied, "planned", len(res.Writes), "error", cause)
	return res, reorderError(cause)
}

// abandon stops a reorder whose lease was lost. Nothing more is written;
// the stored order is returned as is.
func (s *questionReorderService) abandon(ctx context.Context, res *ReorderResult, cause error) (*ReorderResult, error) {
	res.State = ReorderRolledBack
	s.metrics.IncReorderOutcome("lease_lost")
	res.Order = s.reload(context.WithoutCancel(ctx), res.QuestionnaireType)
	s.log.Error("reorder abandoned", "questionnaire_type", res.QuestionnaireType, "applied", res.Applied, "planned", len(res.Writes), "error", cause)
	return res, reorderError(cause)
}

func (s *questionReorderService) reload(ctx context.Context, qtype string) []*types.Question {
	fresh, err := s.questions.ListByType(dbctx.Context{Ctx: ctx}, qtype, true)
	if err != nil {
		s.log.Error("reorder reload failed", "questionnaire_type", qtype, "error", err)
		return nil
	}
	return fresh
}

func reorderError(cause error) error {
	if domainagg.CodeOf(cause) != "" {
		return cause
	}
	return domainagg.Wrap(domainagg.CodeInternal, "reorder", cause)
}

func (s *questionReorderService) Status(ctx context.Context, questionnaireType string) (*ReorderStatus, error) {
	qtype := strings.TrimSpace(questionnaireType)
	if qtype == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, "reorder_status", "questionnaire type is required", nil)
	}
	phase, held, err := s.locker.State(ctx, reorderLockKey(qtype))
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, "reorder_status", err)
	}
	out := &ReorderStatus{QuestionnaireType: qtype, Phase: ReorderPhaseIdle}
	if held {
		out.Phase = phase
		out.InProgress = true
	}
	return out, nil
}
