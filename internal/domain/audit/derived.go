package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DerivedCategory names one family of compliance audits that are spun off from
// a source audit. Each category lives in its own table with the same shape.
type DerivedCategory string

const (
	DerivedHealth        DerivedCategory = "health"
	DerivedAccessibility DerivedCategory = "accessibility"
	DerivedMinistry      DerivedCategory = "ministry"
	DerivedTax           DerivedCategory = "tax"
)

// DerivedCategories lists every category the archival cascade must visit.
func DerivedCategories() []DerivedCategory {
	return []DerivedCategory{DerivedHealth, DerivedAccessibility, DerivedMinistry, DerivedTax}
}

func (c DerivedCategory) Valid() bool {
	switch c {
	case DerivedHealth, DerivedAccessibility, DerivedMinistry, DerivedTax:
		return true
	default:
		return false
	}
}

func (c DerivedCategory) TableName() string { return string(c) + "_audit" }

type OriginalAuditStatus string

const (
	OriginalAuditLive     OriginalAuditStatus = "live"
	OriginalAuditArchived OriginalAuditStatus = "archived"
)

// DerivedAuditRef identifies one derived row independent of its category table.
type DerivedAuditRef struct {
	Category DerivedCategory `json:"category"`
	ID       uuid.UUID       `json:"id"`
}

type DerivedComplianceAudit struct {
	ID                  uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	OriginalAuditID     uuid.UUID           `gorm:"type:uuid;column:original_audit_id;not null" json:"original_audit_id"`
	OriginalAuditStatus OriginalAuditStatus `gorm:"column:original_audit_status;not null" json:"original_audit_status"`
	BranchID            string              `gorm:"column:branch_id" json:"branch_id"`
	AuditDate           time.Time           `gorm:"column:audit_date" json:"audit_date"`
	Summary             string              `gorm:"column:summary" json:"summary"`
	Findings            datatypes.JSON      `gorm:"column:findings" json:"findings,omitempty"`
	CreatedAt           time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"not null" json:"updated_at"`

	Category DerivedCategory `gorm:"-" json:"category"`
}

func (d *DerivedComplianceAudit) Ref() DerivedAuditRef {
	return DerivedAuditRef{Category: d.Category, ID: d.ID}
}

const ArchivedItemTypeAudit = "audit"

// ArchivedItem is the durable copy written before any destructive delete.
type ArchivedItem struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ItemType   string         `gorm:"column:item_type;not null;index" json:"item_type"`
	OriginalID uuid.UUID      `gorm:"type:uuid;column:original_id;not null;index" json:"original_id"`
	DeletedBy  string         `gorm:"column:deleted_by" json:"deleted_by"`
	Payload    datatypes.JSON `gorm:"column:payload;not null" json:"payload"`
	ArchivedAt time.Time      `gorm:"column:archived_at;not null" json:"archived_at"`
}

func (ArchivedItem) TableName() string { return "archived_item" }
