// Package catalogseed loads questionnaire definitions from YAML and appends
// them to the catalog.
package catalogseed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
	"github.com/yungbote/branchaudit-backend/internal/services"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

type NamedEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type QuestionEntry struct {
	Text     string             `yaml:"text"`
	Type     audit.QuestionType `yaml:"type"`
	Choices  []string           `yaml:"choices"`
	MaxScore int                `yaml:"max_score"`
	Required bool               `yaml:"required"`
	Topic    string             `yaml:"topic"`
	Location string             `yaml:"location"`
}

type Questionnaire struct {
	Type      string          `yaml:"type"`
	Questions []QuestionEntry `yaml:"questions"`
}

type File struct {
	Topics         []NamedEntry    `yaml:"topics"`
	Locations      []NamedEntry    `yaml:"locations"`
	Questionnaires []Questionnaire `yaml:"questionnaires"`
}

type Result struct {
	TopicsCreated    int
	LocationsCreated int
	QuestionsCreated int
	QuestionsSkipped int
}

// Default returns the embedded starter catalog.
func Default() (*File, error) {
	return Parse(bytes.NewReader(defaultCatalog))
}

func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) Validate() error {
	topics := map[string]bool{}
	for _, t := range f.Topics {
		topics[strings.TrimSpace(t.Name)] = true
	}
	locations := map[string]bool{}
	for _, l := range f.Locations {
		locations[strings.TrimSpace(l.Name)] = true
	}
	for qi, qn := range f.Questionnaires {
		if strings.TrimSpace(qn.Type) == "" {
			return fmt.Errorf("questionnaires[%d]: missing type", qi)
		}
		for i, q := range qn.Questions {
			where := fmt.Sprintf("%s.questions[%d]", qn.Type, i)
			if strings.TrimSpace(q.Text) == "" {
				return fmt.Errorf("%s: missing text", where)
			}
			if !q.Type.Valid() {
				return fmt.Errorf("%s: unknown type %q", where, q.Type)
			}
			if t := strings.TrimSpace(q.Topic); t != "" && !topics[t] {
				return fmt.Errorf("%s: topic %q is not declared", where, t)
			}
			if l := strings.TrimSpace(q.Location); l != "" && !locations[l] {
				return fmt.Errorf("%s: location %q is not declared", where, l)
			}
		}
	}
	return nil
}

type Seeder struct {
	log     *logger.Logger
	catalog services.CatalogService
}

func NewSeeder(log *logger.Logger, catalog services.CatalogService) *Seeder {
	return &Seeder{log: log.With("component", "CatalogSeeder"), catalog: catalog}
}

// Apply creates missing topics and locations by name, then appends each
// question in file order. Questions whose text already exists in the
// questionnaire are skipped, so re-running a file is harmless.
func (s *Seeder) Apply(ctx context.Context, f *File) (Result, error) {
	var res Result
	if f == nil {
		return res, nil
	}

	topicIDs, created, err := s.ensureTopics(ctx, f.Topics)
	if err != nil {
		return res, err
	}
	res.TopicsCreated = created
	locationIDs, created, err := s.ensureLocations(ctx, f.Locations)
	if err != nil {
		return res, err
	}
	res.LocationsCreated = created

	for _, qn := range f.Questionnaires {
		qtype := strings.TrimSpace(qn.Type)
		existing, err := s.catalog.ListAll(ctx, qtype)
		if err != nil {
			return res, fmt.Errorf("list %s: %w", qtype, err)
		}
		seen := map[string]bool{}
		for _, q := range existing {
			seen[strings.TrimSpace(q.Text)] = true
		}
		for _, q := range qn.Questions {
			text := strings.TrimSpace(q.Text)
			if seen[text] {
				res.QuestionsSkipped++
				continue
			}
			in := domainagg.CreateQuestionInput{
				QuestionnaireType: qtype,
				Text:              text,
				Type:              q.Type,
				Choices:           q.Choices,
				MaxScore:          q.MaxScore,
				IsRequired:        q.Required,
			}
			if id, ok := topicIDs[strings.TrimSpace(q.Topic)]; ok {
				in.TopicID = &id
			}
			if id, ok := locationIDs[strings.TrimSpace(q.Location)]; ok {
				in.LocationID = &id
			}
			if _, err := s.catalog.Create(ctx, in); err != nil {
				return res, fmt.Errorf("create %s %q: %w", qtype, text, err)
			}
			seen[text] = true
			res.QuestionsCreated++
		}
		s.log.Info("Seeded questionnaire", "questionnaire_type", qtype, "questions", len(qn.Questions))
	}
	return res, nil
}
