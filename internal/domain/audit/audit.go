package audit

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Audit struct {
	ID                    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AuditType             string         `gorm:"column:audit_type;not null;index" json:"audit_type"`
	BranchID              string         `gorm:"column:branch_id;not null;index" json:"branch_id"`
	AuditDate             time.Time      `gorm:"column:audit_date;not null" json:"audit_date"`
	AuditorName           string         `gorm:"column:auditor_name" json:"auditor_name"`
	OverallScore          float64        `gorm:"column:overall_score" json:"overall_score"`
	QuestionnaireSnapshot datatypes.JSON `gorm:"column:questionnaire_snapshot" json:"questionnaire_snapshot,omitempty"`
	ResponseRequired      bool           `gorm:"column:response_required;not null" json:"response_required"`
	CreatedBy             string         `gorm:"column:created_by" json:"created_by"`
	CreatedAt             time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"not null" json:"updated_at"`
}

func (Audit) TableName() string { return "audit" }

// Snapshot decodes the frozen questionnaire. It returns nil for audits created
// before snapshots existed.
func (a *Audit) Snapshot() (*QuestionnaireSnapshot, error) {
	if a == nil {
		return nil, nil
	}
	raw := strings.TrimSpace(string(a.QuestionnaireSnapshot))
	if raw == "" || raw == "null" || raw == "{}" {
		return nil, nil
	}
	var snap QuestionnaireSnapshot
	if err := json.Unmarshal(a.QuestionnaireSnapshot, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

type AuditorResponse struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	AuditID       uuid.UUID                   `gorm:"type:uuid;column:audit_id;not null;uniqueIndex:idx_auditor_response_key,priority:1" json:"audit_id"`
	QuestionID    uuid.UUID                   `gorm:"type:uuid;column:question_id;not null;uniqueIndex:idx_auditor_response_key,priority:2" json:"question_id"`
	ResponseValue string                      `gorm:"column:response_value" json:"response_value"`
	FileURLs      datatypes.JSONSlice[string] `gorm:"column:file_urls" json:"file_urls"`
	CreatedAt     time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"not null" json:"updated_at"`
}

func (AuditorResponse) TableName() string { return "auditor_response" }

type BranchResponseStatus string

const (
	BranchResponseDraft     BranchResponseStatus = "draft"
	BranchResponseSubmitted BranchResponseStatus = "submitted"
)

type BranchItemStatus string

const (
	BranchItemHandled    BranchItemStatus = "handled"
	BranchItemInProgress BranchItemStatus = "in_progress"
	BranchItemNotHandled BranchItemStatus = "not_handled"
)

func (s BranchItemStatus) Valid() bool {
	switch s {
	case BranchItemHandled, BranchItemInProgress, BranchItemNotHandled:
		return true
	default:
		return false
	}
}

// BranchItemResponse is the branch's answer to one snapshot question.
type BranchItemResponse struct {
	Status   BranchItemStatus `json:"status"`
	Comment  string           `json:"comment,omitempty"`
	FileURLs []string         `json:"file_urls,omitempty"`
}

type BranchResponseItems map[uuid.UUID]BranchItemResponse

type BranchAuditResponse struct {
	ID                  uuid.UUID                                `gorm:"type:uuid;primaryKey" json:"id"`
	AuditID             uuid.UUID                                `gorm:"type:uuid;column:audit_id;not null;uniqueIndex" json:"audit_id"`
	Status              BranchResponseStatus                     `gorm:"column:status;not null" json:"status"`
	ResponsesByQuestion datatypes.JSONType[BranchResponseItems] `gorm:"column:responses_by_question" json:"responses_by_question"`
	SubmittedBy         string                                   `gorm:"column:submitted_by" json:"submitted_by,omitempty"`
	SubmittedAt         *time.Time                               `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CreatedAt           time.Time                                `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time                                `gorm:"not null" json:"updated_at"`
}

func (BranchAuditResponse) TableName() string { return "branch_audit_response" }

func (r *BranchAuditResponse) Items() BranchResponseItems {
	if r == nil {
		return BranchResponseItems{}
	}
	items := r.ResponsesByQuestion.Data()
	if items == nil {
		return BranchResponseItems{}
	}
	return items
}

func (r *BranchAuditResponse) IsSubmitted() bool {
	return r != nil && r.Status == BranchResponseSubmitted
}
