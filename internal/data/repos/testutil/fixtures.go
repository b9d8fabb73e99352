package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/branchaudit-backend/internal/domain"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
)

// SeedQuestions inserts active questions of one type with dense order indices.
func SeedQuestions(tb testing.TB, ctx context.Context, tx *gorm.DB, qtype string, texts ...string) []*types.Question {
	tb.Helper()
	now := time.Now().UTC()
	out := make([]*types.Question, 0, len(texts))
	for i, text := range texts {
		q := &types.Question{
			ID:                uuid.New(),
			QuestionnaireType: qtype,
			Text:              text,
			Type:              audit.QuestionTypeRating1To5,
			MaxScore:          5,
			OrderIndex:        i,
			IsActive:          true,
			CreatedAt:         now.Add(time.Duration(i) * time.Millisecond),
			UpdatedAt:         now,
		}
		if err := tx.WithContext(ctx).Create(q).Error; err != nil {
			tb.Fatalf("seed question: %v", err)
		}
		out = append(out, q)
	}
	return out
}

func SeedAudit(tb testing.TB, ctx context.Context, tx *gorm.DB, auditType string, responseRequired bool) *types.Audit {
	tb.Helper()
	now := time.Now().UTC()
	a := &types.Audit{
		ID:               uuid.New(),
		AuditType:        auditType,
		BranchID:         "branch-1",
		AuditDate:        now,
		AuditorName:      "auditor",
		ResponseRequired: responseRequired,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed audit: %v", err)
	}
	return a
}

func SeedDerived(tb testing.TB, ctx context.Context, tx *gorm.DB, cat types.DerivedCategory, originalID uuid.UUID) *types.DerivedComplianceAudit {
	tb.Helper()
	now := time.Now().UTC()
	d := &types.DerivedComplianceAudit{
		ID:                  uuid.New(),
		OriginalAuditID:     originalID,
		OriginalAuditStatus: types.OriginalAuditLive,
		BranchID:            "branch-1",
		AuditDate:           now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := tx.WithContext(ctx).Table(cat.TableName()).Create(d).Error; err != nil {
		tb.Fatalf("seed derived %s: %v", cat, err)
	}
	d.Category = cat
	return d
}
