package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
)

var AuditAggregateContract = Contract{
	Name:      "audit",
	Tables:    []string{"audit", "auditor_response"},
	Invariant: "an audit row never exists without its questionnaire snapshot",
}

// AuditAggregate owns an audit row, its snapshot and auditor responses.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeRateLimited, CodeInternal.
type AuditAggregate interface {
	Aggregate

	// CreateWithSnapshot reads the active catalog for the audit type plus all
	// topics and locations and stores a deep copy with the new audit in one
	// transaction.
	CreateWithSnapshot(ctx context.Context, in CreateAuditInput) (*audit.Audit, error)

	// SaveAuditorResponse upserts by (audit_id, question_id). The question must
	// be a non-header entry of the audit's snapshot.
	SaveAuditorResponse(ctx context.Context, in SaveAuditorResponseInput) (*audit.AuditorResponse, error)
}

type CreateAuditInput struct {
	AuditType        string
	BranchID         string
	AuditDate        time.Time
	AuditorName      string
	OverallScore     float64
	ResponseRequired bool
	CreatedBy        string
}

type SaveAuditorResponseInput struct {
	AuditID       uuid.UUID
	QuestionID    uuid.UUID
	ResponseValue string
	FileURLs      []string
}
