package aggregates

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/branchaudit-backend/internal/data/repos"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
	"github.com/yungbote/branchaudit-backend/internal/platform/dbctx"
)

// SnapshotSources are the live tables a questionnaire snapshot is copied from.
type SnapshotSources struct {
	Questions repos.QuestionRepo
	Topics    repos.TopicRepo
	Locations repos.LocationRepo
}

// Capture reads the active ordered catalog for auditType plus all topics and
// locations and returns a deep copy.
func (s SnapshotSources) Capture(dbc dbctx.Context, auditType string, now time.Time) (*audit.QuestionnaireSnapshot, error) {
	questions, err := s.Questions.ListByType(dbc, auditType, true)
	if err != nil {
		return nil, err
	}
	var (
		topics    []*audit.Topic
		locations []*audit.Location
	)
	if s.Topics != nil {
		if topics, err = s.Topics.List(dbc, false); err != nil {
			return nil, err
		}
	}
	if s.Locations != nil {
		if locations, err = s.Locations.List(dbc, false); err != nil {
			return nil, err
		}
	}
	return audit.BuildSnapshot(questions, topics, locations, now), nil
}

// Resolve returns the audit's stored snapshot, or a reconstruction from the
// live catalog when the audit predates snapshotting.
func (s SnapshotSources) Resolve(dbc dbctx.Context, a *audit.Audit) (*audit.QuestionnaireSnapshot, error) {
	snap, err := a.Snapshot()
	if err != nil {
		return nil, err
	}
	if snap != nil {
		return snap, nil
	}
	live, err := s.Capture(dbc, a.AuditType, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	live.Reconstructed = true
	return live, nil
}

func encodeSnapshot(snap *audit.QuestionnaireSnapshot) (datatypes.JSON, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
