package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	repotest "github.com/yungbote/branchaudit-backend/internal/data/repos/testutil"
	types "github.com/yungbote/branchaudit-backend/internal/domain"
	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
)

type overlayCase struct {
	f      *fixture
	view   *AuditView
	header *types.Question
	depth  *types.Question
	clean  *types.Question
}

func newOverlayCase(t *testing.T, responseRequired bool) overlayCase {
	t.Helper()
	f := newFixture(t)
	ctx := asUser("Dana")
	mk := func(text string, qt audit.QuestionType) *types.Question {
		q, err := f.catalog.Create(ctx, domainagg.CreateQuestionInput{QuestionnaireType: "store", Text: text, Type: qt, MaxScore: 5})
		if err != nil {
			t.Fatalf("Create(%s): %v", text, err)
		}
		return q
	}
	c := overlayCase{f: f}
	c.header = mk("מלאי", audit.QuestionTypeHeader)
	c.depth = mk("עומק המלאי", audit.QuestionTypeRating1To5)
	c.clean = mk("Shelves clean", audit.QuestionTypeStatusCheck)

	view, err := f.audits.Create(ctx, CreateAuditRequest{AuditType: "store", BranchID: "b-7", ResponseRequired: responseRequired})
	if err != nil {
		t.Fatalf("audits.Create: %v", err)
	}
	if view.Audit.CreatedBy != "Dana" {
		t.Fatalf("created_by not stamped: %q", view.Audit.CreatedBy)
	}
	c.view = view
	return c
}

func TestRenderMarksMissingAnswersAndSurvivesLiveEdits(t *testing.T) {
	c := newOverlayCase(t, true)
	ctx := asUser("Dana")
	id := c.view.Audit.ID

	if _, err := c.f.overlay.SaveAuditorResponse(ctx, domainagg.SaveAuditorResponseInput{AuditID: id, QuestionID: c.depth.ID, ResponseValue: "4"}); err != nil {
		t.Fatalf("SaveAuditorResponse: %v", err)
	}
	if _, err := c.f.overlay.SaveBranchDraft(ctx, id, types.BranchResponseItems{
		c.clean.ID: {Status: audit.BranchItemInProgress, Comment: "ordering shelf liners"},
	}); err != nil {
		t.Fatalf("SaveBranchDraft: %v", err)
	}

	renamed := "Stock depth"
	if _, err := c.f.catalog.Update(ctx, c.depth.ID, audit.QuestionPatch{Text: &renamed}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := c.f.catalog.Delete(ctx, c.clean.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	r, err := c.f.overlay.Render(ctx, id)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(r.Items) != 3 {
		t.Fatalf("want 3 rendered items, got %d", len(r.Items))
	}
	h, depth, clean := r.Items[0], r.Items[1], r.Items[2]
	if !h.IsHeader || h.Auditor != nil || h.Branch != nil {
		t.Fatalf("header should carry no answers: %+v", h)
	}
	if depth.Question.Text != "עומק המלאי" || depth.Section != "מלאי" {
		t.Fatalf("snapshot text/section changed: %+v", depth)
	}
	if depth.Auditor.State != Answered || depth.Auditor.ResponseValue != "4" {
		t.Fatalf("auditor answer: %+v", depth.Auditor)
	}
	if depth.Branch.State != NotAnswered {
		t.Fatalf("branch answer for depth should be not_answered: %+v", depth.Branch)
	}
	if clean.Auditor.State != NotAnswered {
		t.Fatalf("clean auditor answer should be not_answered: %+v", clean.Auditor)
	}
	if clean.Branch.State != Answered || clean.Branch.Status != audit.BranchItemInProgress {
		t.Fatalf("branch answer for deleted live question lost: %+v", clean.Branch)
	}
	if r.BranchStatus != audit.BranchResponseDraft || r.Reconstructed {
		t.Fatalf("render meta: status=%q reconstructed=%v", r.BranchStatus, r.Reconstructed)
	}
}

func TestBranchResponseLifecycle(t *testing.T) {
	c := newOverlayCase(t, true)
	ctx := asUser("Noa")
	id := c.view.Audit.ID

	if err := c.f.overlay.CheckBranchEditable(ctx, id); err != nil {
		t.Fatalf("CheckBranchEditable(new): %v", err)
	}
	if _, err := c.f.overlay.GetBranchResponse(ctx, id); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("GetBranchResponse(none): want not_found, got %v", err)
	}
	row, err := c.f.overlay.SubmitBranchResponse(ctx, id, types.BranchResponseItems{
		c.depth.ID: {Status: audit.BranchItemHandled},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if row.SubmittedBy != "Noa" || row.SubmittedAt == nil {
		t.Fatalf("submit stamp missing: %+v", row)
	}
	if err := c.f.overlay.CheckBranchEditable(ctx, id); !domainagg.IsCode(err, domainagg.CodeResponseAlreadySubmitted) {
		t.Fatalf("CheckBranchEditable(submitted): want already_submitted, got %v", err)
	}
	if _, err := c.f.overlay.SaveBranchDraft(ctx, id, types.BranchResponseItems{c.depth.ID: {Status: audit.BranchItemNotHandled}}); !domainagg.IsCode(err, domainagg.CodeResponseAlreadySubmitted) {
		t.Fatalf("SaveBranchDraft(submitted): want already_submitted, got %v", err)
	}
	got, err := c.f.overlay.GetBranchResponse(ctx, id)
	if err != nil {
		t.Fatalf("GetBranchResponse: %v", err)
	}
	if got.Items()[c.depth.ID].Status != audit.BranchItemHandled {
		t.Fatalf("submitted items changed: %+v", got.Items())
	}
}

func TestBranchResponseNotRequired(t *testing.T) {
	c := newOverlayCase(t, false)
	ctx := asUser("Noa")
	if err := c.f.overlay.CheckBranchEditable(ctx, c.view.Audit.ID); !domainagg.IsCode(err, domainagg.CodeResponseNotRequired) {
		t.Fatalf("want response_not_required, got %v", err)
	}
	if err := c.f.overlay.CheckBranchEditable(ctx, uuid.New()); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown audit: want not_found, got %v", err)
	}
}

func TestRenderLegacyAuditIsReconstructed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repotest.SeedQuestions(t, ctx, f.db, "store", "A", "B")
	legacy := repotest.SeedAudit(t, ctx, f.db, "store", true)

	r, err := f.overlay.Render(ctx, legacy.ID)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !r.Reconstructed || len(r.Items) != 2 {
		t.Fatalf("want reconstructed render with 2 items, got reconstructed=%v items=%d", r.Reconstructed, len(r.Items))
	}
	stored, err := f.auditRepo.GetByID(dbctx.Context{Ctx: ctx}, legacy.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if snap, _ := stored.Snapshot(); snap != nil {
		t.Fatalf("reconstruction must not be written back")
	}
}

func TestUploadEvidence(t *testing.T) {
	c := newOverlayCase(t, true)
	ctx := asUser("Dana")
	url, err := c.f.overlay.UploadEvidence(ctx, EvidenceUpload{
		AuditID:     c.view.Audit.ID,
		Filename:    "shelf photo.jpg",
		ContentType: "image/jpeg",
		Body:        strings.NewReader("jpeg-bytes"),
	})
	if err != nil {
		t.Fatalf("UploadEvidence: %v", err)
	}
	if !strings.HasPrefix(url, "https://cdn.test/audits/"+c.view.Audit.ID.String()+"/") {
		t.Fatalf("unexpected url %q", url)
	}
	if _, err := c.f.overlay.SaveAuditorResponse(ctx, domainagg.SaveAuditorResponseInput{
		AuditID: c.view.Audit.ID, QuestionID: c.clean.ID, ResponseValue: "ok", FileURLs: []string{url},
	}); err != nil {
		t.Fatalf("SaveAuditorResponse: %v", err)
	}
	if _, err := c.f.overlay.UploadEvidence(ctx, EvidenceUpload{AuditID: uuid.New(), Filename: "x.png", Body: strings.NewReader("x")}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown audit: want not_found, got %v", err)
	}
}
