package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
)

var BranchResponseAggregateContract = Contract{
	Name:      "branch_response",
	Tables:    []string{"branch_audit_response"},
	Invariant: "a submitted branch response is never written again",
}

// BranchResponseAggregate owns the branch overlay of one audit.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeResponseNotRequired,
// CodeResponseAlreadySubmitted, CodeConflict, CodeRateLimited, CodeInternal.
type BranchResponseAggregate interface {
	Aggregate

	// SaveDraft merges items into the draft, creating it on first save.
	SaveDraft(ctx context.Context, in SaveBranchResponseInput) (*audit.BranchAuditResponse, error)

	// Submit merges items and moves the response to submitted. Submitted is terminal.
	Submit(ctx context.Context, in SaveBranchResponseInput) (*audit.BranchAuditResponse, error)
}

type SaveBranchResponseInput struct {
	AuditID uuid.UUID
	Items   audit.BranchResponseItems
	Actor   string
}
