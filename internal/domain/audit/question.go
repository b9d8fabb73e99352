package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionTypeHeader         QuestionType = "header"
	QuestionTypeRating1To5     QuestionType = "rating_1_5"
	QuestionTypeStatusCheck    QuestionType = "status_check"
	QuestionTypeText           QuestionType = "text"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeHeader, QuestionTypeRating1To5, QuestionTypeStatusCheck, QuestionTypeText, QuestionTypeMultipleChoice:
		return true
	default:
		return false
	}
}

// IsHeader reports whether the question is a section title rather than an answerable item.
func (t QuestionType) IsHeader() bool { return t == QuestionTypeHeader }

// Question is a live catalog entry. Active questions of one questionnaire type
// hold order_index values 0..N-1 with no gaps.
type Question struct {
	ID                uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionnaireType string                     `gorm:"column:questionnaire_type;not null;index:idx_question_type_order,priority:1" json:"questionnaire_type"`
	Text              string                     `gorm:"column:text;not null" json:"text"`
	Type              QuestionType               `gorm:"column:type;not null" json:"type"`
	Choices           datatypes.JSONSlice[string] `gorm:"column:choices" json:"choices"`
	TopicID           *uuid.UUID                 `gorm:"type:uuid;column:topic_id;index" json:"topic_id,omitempty"`
	LocationID        *uuid.UUID                 `gorm:"type:uuid;column:location_id;index" json:"location_id,omitempty"`
	MaxScore          int                        `gorm:"column:max_score;not null" json:"max_score"`
	OrderIndex        int                        `gorm:"column:order_index;not null;index:idx_question_type_order,priority:2" json:"order_index"`
	IsActive          bool                       `gorm:"column:is_active;not null" json:"is_active"`
	IsRequired        bool                       `gorm:"column:is_required;not null" json:"is_required"`
	CreatedAt         time.Time                  `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time                  `gorm:"not null" json:"updated_at"`
}

func (Question) TableName() string { return "question" }

// QuestionPatch carries a partial update. Ordering is owned by the catalog and
// cannot be patched.
type QuestionPatch struct {
	Text       *string       `json:"text,omitempty"`
	Type       *QuestionType `json:"type,omitempty"`
	Choices    *[]string     `json:"choices,omitempty"`
	TopicID    *uuid.UUID    `json:"topic_id,omitempty"`
	LocationID *uuid.UUID    `json:"location_id,omitempty"`
	MaxScore   *int          `json:"max_score,omitempty"`
	IsActive   *bool         `json:"is_active,omitempty"`
	IsRequired *bool         `json:"is_required,omitempty"`
}

// Fields converts the patch into a column map for UpdateFields.
func (p QuestionPatch) Fields() map[string]interface{} {
	out := map[string]interface{}{}
	if p.Text != nil {
		out["text"] = strings.TrimSpace(*p.Text)
	}
	if p.Type != nil {
		out["type"] = *p.Type
	}
	if p.Choices != nil {
		out["choices"] = datatypes.JSONSlice[string](*p.Choices)
	}
	if p.TopicID != nil {
		out["topic_id"] = *p.TopicID
	}
	if p.LocationID != nil {
		out["location_id"] = *p.LocationID
	}
	if p.MaxScore != nil {
		out["max_score"] = *p.MaxScore
	}
	if p.IsActive != nil {
		out["is_active"] = *p.IsActive
	}
	if p.IsRequired != nil {
		out["is_required"] = *p.IsRequired
	}
	return out
}

type Topic struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	IsActive    bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Topic) TableName() string { return "topic" }

type Location struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	IsActive    bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Location) TableName() string { return "location" }
