package services

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	dataagg "github.com/yungbote/branchaudit-backend/internal/data/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	types "github.com/yungbote/branchaudit-backend/internal/domain"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
	"github.com/yungbote/branchaudit-backend/internal/observability"
	"github.com/yungbote/branchaudit-backend/internal/platform/blob"
	"github.com/yungbote/branchaudit-backend/internal/platform/ctxutil"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

// AnswerState tells a renderer whether an overlay has an entry for a question.
type AnswerState string

const (
	Answered    AnswerState = "answered"
	NotAnswered AnswerState = "not_answered"
)

type AuditorAnswer struct {
	State         AnswerState `json:"state"`
	ResponseValue string      `json:"response_value,omitempty"`
	FileURLs      []string    `json:"file_urls,omitempty"`
}

type BranchAnswer struct {
	State    AnswerState            `json:"state"`
	Status   audit.BranchItemStatus `json:"status,omitempty"`
	Comment  string                 `json:"comment,omitempty"`
	FileURLs []string               `json:"file_urls,omitempty"`
}

// RenderedItem is one snapshot entry joined with both overlays. Headers carry
// no answers.
type RenderedItem struct {
	Question types.SnapshotQuestion `json:"question"`
	IsHeader bool                   `json:"is_header"`
	Section  string                 `json:"section,omitempty"`
	Auditor  *AuditorAnswer         `json:"auditor,omitempty"`
	Branch   *BranchAnswer          `json:"branch,omitempty"`
}

type RenderedAudit struct {
	Audit         *types.Audit                 `json:"audit"`
	Reconstructed bool                         `json:"reconstructed"`
	BranchStatus  audit.BranchResponseStatus   `json:"branch_status,omitempty"`
	Items         []RenderedItem               `json:"items"`
	Snapshot      *types.QuestionnaireSnapshot `json:"snapshot"`
}

type EvidenceUpload struct {
	AuditID     uuid.UUID
	Filename    string
	ContentType string
	Body        io.Reader
}

type ResponseOverlayService interface {
	Render(ctx context.Context, auditID uuid.UUID) (*RenderedAudit, error)

	SaveAuditorResponse(ctx context.Context, in domainagg.SaveAuditorResponseInput) (*types.AuditorResponse, error)
	ListAuditorResponses(ctx context.Context, auditID uuid.UUID) ([]*types.AuditorResponse, error)

	CheckBranchEditable(ctx context.Context, auditID uuid.UUID) error
	GetBranchResponse(ctx context.Context, auditID uuid.UUID) (*types.BranchAuditResponse, error)
	SaveBranchDraft(ctx context.Context, auditID uuid.UUID, items types.BranchResponseItems) (*types.BranchAuditResponse, error)
	SubmitBranchResponse(ctx context.Context, auditID uuid.UUID, items types.BranchResponseItems) (*types.BranchAuditResponse, error)

	// UploadEvidence stores a file for an audit and returns the URL to record
	// in file_urls.
	UploadEvidence(ctx context.Context, in EvidenceUpload) (string, error)
}

type responseOverlayService struct {
	log     *logger.Logger
	audits  AuditService
	auditor repos.AuditorResponseRepo
	branch  repos.BranchResponseRepo
	agg     domainagg.AuditAggregate
	branchA domainagg.BranchResponseAggregate
	blobs   blob.Store
	now     func() time.Time
}

func NewResponseOverlayService(
	log *logger.Logger,
	audits AuditService,
	auditor repos.AuditorResponseRepo,
	branch repos.BranchResponseRepo,
	agg domainagg.AuditAggregate,
	branchAgg domainagg.BranchResponseAggregate,
	blobs blob.Store,
) ResponseOverlayService {
	return &responseOverlayService{
		log:     log.With("service", "ResponseOverlayService"),
		audits:  audits,
		auditor: auditor,
		branch:  branch,
		agg:     agg,
		branchA: branchAgg,
		blobs:   blobs,
		now:     time.Now,
	}
}

func (s *responseOverlayService) Render(ctx context.Context, auditID uuid.UUID) (*RenderedAudit, error) {
	ctx, span := observability.StartSpan(ctx, "audit.render", "audit_id", auditID.String())
	defer span.End()

	view, err := s.audits.Get(ctx, auditID)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	auditorRows, err := s.auditor.ListByAudit(dbc, auditID)
	if err != nil {
		return nil, dataagg.MapError("audit.render", err)
	}
	branchRow, err := s.branch.GetByAudit(dbc, auditID)
	if err != nil {
		return nil, dataagg.MapError("audit.render", err)
	}

	out := &RenderedAudit{
		Audit:         view.Audit,
		Snapshot:      view.Snapshot,
		Reconstructed: view.Snapshot.Reconstructed,
	}
	if branchRow != nil {
		out.BranchStatus = branchRow.Status
	}
	out.Items = JoinOverlays(view.Snapshot, auditorRows, branchRow)
	return out, nil
}

// JoinOverlays walks the snapshot in order. Answerable entries always get
// both answers, with NotAnswered when an overlay has no entry. Overlay rows for
// ids outside the snapshot are ignored.
func JoinOverlays(snap *types.QuestionnaireSnapshot, auditorRows []*types.AuditorResponse, branchRow *types.BranchAuditResponse) []RenderedItem {
	if snap == nil {
		return []RenderedItem{}
	}
	byQuestion := make(map[uuid.UUID]*types.AuditorResponse, len(auditorRows))
	for _, r := range auditorRows {
		if r != nil {
			byQuestion[r.QuestionID] = r
		}
	}
	branchItems := branchRow.Items()

	items := make([]RenderedItem, 0, len(snap.Questions))
	section := ""
	for _, q := range snap.Questions {
		if q.Type.IsHeader() {
			section = q.Text
			items = append(items, RenderedItem{Question: q, IsHeader: true, Section: section})
			continue
		}
		item := RenderedItem{
			Question: q,
			Section:  section,
			Auditor:  &AuditorAnswer{State: NotAnswered},
			Branch:   &BranchAnswer{State: NotAnswered},
		}
		if r, ok := byQuestion[q.ID]; ok {
			item.Auditor = &AuditorAnswer{State: Answered, ResponseValue: r.ResponseValue, FileURLs: []string(r.FileURLs)}
		}
		if b, ok := branchItems[q.ID]; ok {
			item.Branch = &BranchAnswer{State: Answered, Status: b.Status, Comment: b.Comment, FileURLs: b.FileURLs}
		}
		items = append(items, item)
	}
	return items
}

func (s *responseOverlayService) SaveAuditorResponse(ctx context.Context, in domainagg.SaveAuditorResponseInput) (*types.AuditorResponse, error) {
	return s.agg.SaveAuditorResponse(ctx, in)
}

func (s *responseOverlayService) ListAuditorResponses(ctx context.Context, auditID uuid.UUID) ([]*types.AuditorResponse, error) {
	if _, err := s.audits.Get(ctx, auditID); err != nil {
		return nil, err
	}
	out, err := s.auditor.ListByAudit(dbctx.Context{Ctx: ctx}, auditID)
	if err != nil {
		return nil, dataagg.MapError("auditor_response.list", err)
	}
	return out, nil
}

func (s *responseOverlayService) CheckBranchEditable(ctx context.Context, auditID uuid.UUID) error {
	const op = "branch_response.check_editable"
	view, err := s.audits.Get(ctx, auditID)
	if err != nil {
		return err
	}
	if !view.Audit.ResponseRequired {
		return domainagg.NewError(domainagg.CodeResponseNotRequired, op, "audit does not require a branch response", nil)
	}
	row, err := s.branch.GetByAudit(dbctx.Context{Ctx: ctx}, auditID)
	if err != nil {
		return dataagg.MapError(op, err)
	}
	if row.IsSubmitted() {
		return domainagg.NewError(domainagg.CodeResponseAlreadySubmitted, op, "branch response already submitted", nil)
	}
	return nil
}

func (s *responseOverlayService) GetBranchResponse(ctx context.Context, auditID uuid.UUID) (*types.BranchAuditResponse, error) {
	const op = "branch_response.get"
	if _, err := s.audits.Get(ctx, auditID); err != nil {
		return nil, err
	}
	row, err := s.branch.GetByAudit(dbctx.Context{Ctx: ctx}, auditID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if row == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "no branch response yet", nil)
	}
	return row, nil
}

func (s *responseOverlayService) SaveBranchDraft(ctx context.Context, auditID uuid.UUID, items types.BranchResponseItems) (*types.BranchAuditResponse, error) {
	return s.branchA.SaveDraft(ctx, domainagg.SaveBranchResponseInput{AuditID: auditID, Items: items, Actor: ctxutil.Actor(ctx)})
}

func (s *responseOverlayService) SubmitBranchResponse(ctx context.Context, auditID uuid.UUID, items types.BranchResponseItems) (*types.BranchAuditResponse, error) {
	row, err := s.branchA.Submit(ctx, domainagg.SaveBranchResponseInput{AuditID: auditID, Items: items, Actor: ctxutil.Actor(ctx)})
	if err != nil {
		return nil, err
	}
	s.log.For(ctx).Info("branch response submitted", "audit_id", auditID, "submitted_by", row.SubmittedBy, "items", len(row.Items()))
	return row, nil
}

func (s *responseOverlayService) UploadEvidence(ctx context.Context, in EvidenceUpload) (string, error) {
	const op = "evidence.upload"
	if s.blobs == nil {
		return "", domainagg.NewError(domainagg.CodeInternal, op, "blob storage not configured", nil)
	}
	if in.Body == nil || strings.TrimSpace(in.Filename) == "" {
		return "", domainagg.NewError(domainagg.CodeValidation, op, "file is required", nil)
	}
	if _, err := s.audits.Get(ctx, in.AuditID); err != nil {
		return "", err
	}
	key := blob.EvidenceKey(in.AuditID, in.Filename, s.now())
	url, err := s.blobs.Upload(ctx, key, in.Body, in.ContentType)
	if err != nil {
		s.log.Warn("evidence upload failed", "audit_id", in.AuditID, "key", key, "error", err)
		return "", domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return url, nil
}
