package cli

import (
	"fmt"
	"strings"

	"github.com/tgienger/tdl/internal/models"
	"github.com/tgienger/tdl/internal/store"
)

// resolveTask finds a task by full ID or unique ID prefix
func resolveTask(s *store.Store, ref string) (models.Task, error) {
	if t, ok := s.Task(ref); ok {
		return t, nil
	}

	var matches []models.Task
	for _, t := range s.Tasks() {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Task{}, fmt.Errorf("%w: %q matches %d tasks", ErrAmbiguous, ref, len(matches))
	}
}

// resolveTag finds a tag by ID, unique ID prefix or case-insensitive name
func resolveTag(s *store.Store, ref string) (models.Tag, error) {
	if t, ok := s.Tag(ref); ok {
		return t, nil
	}

	tags := s.Tags()
	var byName, byPrefix []models.Tag
	for _, t := range tags {
		if strings.EqualFold(t.Name, ref) {
			byName = append(byName, t)
		}
		if strings.HasPrefix(t.ID, ref) {
			byPrefix = append(byPrefix, t)
		}
	}
	for _, matches := range [][]models.Tag{byName, byPrefix} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return models.Tag{}, fmt.Errorf("%w: %q matches %d tags", ErrAmbiguous, ref, len(matches))
		}
	}
	return models.Tag{}, fmt.Errorf("%w: %s", ErrTagNotFound, ref)
}

func resolveTags(s *store.Store, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		tag, err := resolveTag(s, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

func tagNames(tags []models.Tag, ids []string) []string {
	byID := make(map[string]string, len(tags))
	for _, t := range tags {
		byID[t.ID] = t.Name
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names
}
