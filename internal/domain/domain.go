package domain

import (
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
)

type Question = audit.Question
type QuestionPatch = audit.QuestionPatch
type QuestionType = audit.QuestionType
type Topic = audit.Topic
type Location = audit.Location

type QuestionnaireSnapshot = audit.QuestionnaireSnapshot
type SnapshotQuestion = audit.SnapshotQuestion

type Audit = audit.Audit
type AuditorResponse = audit.AuditorResponse
type BranchAuditResponse = audit.BranchAuditResponse
type BranchItemResponse = audit.BranchItemResponse
type BranchResponseItems = audit.BranchResponseItems

type DerivedCategory = audit.DerivedCategory
type DerivedAuditRef = audit.DerivedAuditRef
type DerivedComplianceAudit = audit.DerivedComplianceAudit
type OriginalAuditStatus = audit.OriginalAuditStatus
type ArchivedItem = audit.ArchivedItem

const (
	OriginalAuditLive     = audit.OriginalAuditLive
	OriginalAuditArchived = audit.OriginalAuditArchived

	DerivedHealth        = audit.DerivedHealth
	DerivedAccessibility = audit.DerivedAccessibility
	DerivedMinistry      = audit.DerivedMinistry
	DerivedTax           = audit.DerivedTax
)

var DerivedCategories = audit.DerivedCategories

// Models lists every single-table entity for AutoMigrate. Derived compliance
// audits are migrated per category table.
func Models() []interface{} {
	return []interface{}{
		&audit.Question{},
		&audit.Topic{},
		&audit.Location{},
		&audit.Audit{},
		&audit.AuditorResponse{},
		&audit.BranchAuditResponse{},
		&audit.ArchivedItem{},
	}
}
