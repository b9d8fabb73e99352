package audit

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type SnapshotQuestion struct {
	ID         uuid.UUID    `json:"id"`
	Text       string       `json:"text"`
	Type       QuestionType `json:"type"`
	Choices    []string     `json:"choices,omitempty"`
	TopicID    *uuid.UUID   `json:"topic_id,omitempty"`
	LocationID *uuid.UUID   `json:"location_id,omitempty"`
	MaxScore   int          `json:"max_score"`
	OrderIndex int          `json:"order_index"`
	IsRequired bool         `json:"is_required"`
}

type SnapshotTopic struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

type SnapshotLocation struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

// QuestionnaireSnapshot is the frozen question set of one audit. It is the
// only source used to render that audit.
type QuestionnaireSnapshot struct {
	Questions  []SnapshotQuestion `json:"questions"`
	Topics     []SnapshotTopic    `json:"topics"`
	Locations  []SnapshotLocation `json:"locations"`
	CapturedAt time.Time          `json:"captured_at"`
	// Reconstructed marks a snapshot rebuilt from the live catalog for an audit
	// that predates snapshotting. It may not match what the auditor saw.
	Reconstructed bool `json:"reconstructed,omitempty"`
}

// BuildSnapshot deep-copies active questions (sorted by order_index) plus topics
// and locations into a new snapshot.
func BuildSnapshot(questions []*Question, topics []*Topic, locations []*Location, capturedAt time.Time) *QuestionnaireSnapshot {
	active := make([]*Question, 0, len(questions))
	for _, q := range questions {
		if q != nil && q.IsActive {
			active = append(active, q)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].OrderIndex < active[j].OrderIndex })

	snap := &QuestionnaireSnapshot{
		Questions:  make([]SnapshotQuestion, 0, len(active)),
		Topics:     make([]SnapshotTopic, 0, len(topics)),
		Locations:  make([]SnapshotLocation, 0, len(locations)),
		CapturedAt: capturedAt.UTC(),
	}
	for _, q := range active {
		sq := SnapshotQuestion{
			ID:         q.ID,
			Text:       q.Text,
			Type:       q.Type,
			MaxScore:   q.MaxScore,
			OrderIndex: q.OrderIndex,
			IsRequired: q.IsRequired,
		}
		if len(q.Choices) > 0 {
			sq.Choices = append([]string(nil), q.Choices...)
		}
		if q.TopicID != nil {
			id := *q.TopicID
			sq.TopicID = &id
		}
		if q.LocationID != nil {
			id := *q.LocationID
			sq.LocationID = &id
		}
		snap.Questions = append(snap.Questions, sq)
	}
	for _, t := range topics {
		if t == nil {
			continue
		}
		snap.Topics = append(snap.Topics, SnapshotTopic{ID: t.ID, Name: t.Name, Description: t.Description})
	}
	for _, l := range locations {
		if l == nil {
			continue
		}
		snap.Locations = append(snap.Locations, SnapshotLocation{ID: l.ID, Name: l.Name, Description: l.Description})
	}
	return snap
}

// Question returns the snapshot entry for id.
func (s *QuestionnaireSnapshot) Question(id uuid.UUID) (SnapshotQuestion, bool) {
	if s == nil {
		return SnapshotQuestion{}, false
	}
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return SnapshotQuestion{}, false
}
