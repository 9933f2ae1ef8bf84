package store

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/tgienger/tdl/internal/models"
)

// Counts holds the numbers shown next to each sidebar entry
type Counts struct {
	All       int
	Completed int
	ByTag     map[string]int
}

// CountTasks tallies tasks overall, completed, and per tag
func CountTasks(tasks []models.Task) Counts {
	c := Counts{All: len(tasks), ByTag: make(map[string]int)}
	for _, t := range tasks {
		if t.Completed {
			c.Completed++
		}
		for _, id := range t.Tags {
			c.ByTag[id]++
		}
	}
	return c
}

// Filter returns the tasks to display for a tag selector and search query.
//
// selected nil keeps every task, models.CompletedFilter keeps completed tasks,
// any other value keeps tasks carrying that tag. query matches case-insensitively
// against the title or the name of any attached tag. The result is sorted:
// incomplete before completed, then scheduled tasks by schedule ascending, then
// unscheduled tasks by last update descending. Ties keep their original order.
func Filter(tasks []models.Task, tags []models.Tag, selected *string, query string) []models.Task {
	out := make([]models.Task, 0, len(tasks))

	fold := cases.Fold()
	needle := fold.String(query)
	tagNames := make(map[string]string, len(tags))
	if needle != "" {
		for _, tag := range tags {
			tagNames[tag.ID] = fold.String(tag.Name)
		}
	}

	for _, t := range tasks {
		if !matchesSelector(t, selected) {
			continue
		}
		if needle != "" && !matchesQuery(t, needle, tagNames, fold) {
			continue
		}
		out = append(out, t.Clone())
	}

	slices.SortStableFunc(out, compareTasks)
	return out
}

func matchesSelector(t models.Task, selected *string) bool {
	switch {
	case selected == nil:
		return true
	case *selected == models.CompletedFilter:
		return t.Completed
	default:
		return t.HasTag(*selected)
	}
}

func matchesQuery(t models.Task, needle string, tagNames map[string]string, fold cases.Caser) bool {
	if strings.Contains(fold.String(t.Title), needle) {
		return true
	}
	for _, id := range t.Tags {
		if name, ok := tagNames[id]; ok && strings.Contains(name, needle) {
			return true
		}
	}
	return false
}

func compareTasks(a, b models.Task) int {
	if a.Completed != b.Completed {
		if a.Completed {
			return 1
		}
		return -1
	}

	switch {
	case a.ScheduledAt != nil && b.ScheduledAt != nil:
		return a.ScheduledAt.Compare(b.ScheduledAt.Time)
	case a.ScheduledAt != nil:
		return -1
	case b.ScheduledAt != nil:
		return 1
	}

	// most recently updated first
	return b.LastUpdatedAt.Compare(a.LastUpdatedAt.Time)
}
