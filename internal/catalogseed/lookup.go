package catalogseed

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func (s *Seeder) ensureTopics(ctx context.Context, entries []NamedEntry) (map[string]uuid.UUID, int, error) {
	ids := map[string]uuid.UUID{}
	existing, err := s.catalog.ListTopics(ctx, false)
	if err != nil {
		return nil, 0, fmt.Errorf("list topics: %w", err)
	}
	for _, t := range existing {
		ids[strings.TrimSpace(t.Name)] = t.ID
	}
	created := 0
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if _, ok := ids[name]; ok || name == "" {
			continue
		}
		t, err := s.catalog.CreateTopic(ctx, name, e.Description)
		if err != nil {
			return nil, created, fmt.Errorf("create topic %q: %w", name, err)
		}
		ids[name] = t.ID
		created++
	}
	return ids, created, nil
}

func (s *Seeder) ensureLocations(ctx context.Context, entries []NamedEntry) (map[string]uuid.UUID, int, error) {
	ids := map[string]uuid.UUID{}
	existing, err := s.catalog.ListLocations(ctx, false)
	if err != nil {
		return nil, 0, fmt.Errorf("list locations: %w", err)
	}
	for _, l := range existing {
		ids[strings.TrimSpace(l.Name)] = l.ID
	}
	created := 0
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if _, ok := ids[name]; ok || name == "" {
			continue
		}
		l, err := s.catalog.CreateLocation(ctx, name, e.Description)
		if err != nil {
			return nil, created, fmt.Errorf("create location %q: %w", name, err)
		}
		ids[name] = l.ID
		created++
	}
	return ids, created, nil
}
