package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/tdl/internal/models"
)

var base = time.Date(2026, time.October, 17, 12, 0, 0, 0, time.Local)

func ts(offset time.Duration) models.Timestamp {
	return models.NewTimestamp(base.Add(offset))
}

func tsPtr(offset time.Duration) *models.Timestamp {
	t := ts(offset)
	return &t
}

func titles(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func fixture() ([]models.Task, []models.Tag) {
	tags := []models.Tag{
		{ID: "tag-work", Name: "Work", Color: "#2196f3"},
		{ID: "tag-shop", Name: "Shopping", Color: "#ff9800"},
	}
	tasks := []models.Task{
		{ID: "1", Title: "Write report", LastUpdatedAt: ts(0), Tags: []string{"tag-work"}},
		{ID: "2", Title: "Buy milk", Completed: true, LastUpdatedAt: ts(time.Hour), Tags: []string{"tag-shop"}},
		{ID: "3", Title: "Dentist", ScheduledAt: tsPtr(48 * time.Hour), LastUpdatedAt: ts(0), Tags: []string{}},
		{ID: "4", Title: "Standup", ScheduledAt: tsPtr(2 * time.Hour), LastUpdatedAt: ts(-time.Hour), Tags: []string{"tag-work"}},
		{ID: "5", Title: "Call mom", LastUpdatedAt: ts(30 * time.Minute), Tags: []string{}},
		{ID: "6", Title: "Old invoice", Completed: true, ScheduledAt: tsPtr(-24 * time.Hour), LastUpdatedAt: ts(0), Tags: []string{"tag-work"}},
	}
	return tasks, tags
}

func TestFilter_SortOrder(t *testing.T) {
	tasks, tags := fixture()

	got := Filter(tasks, tags, nil, "")

	assert.Equal(t, []string{
		"Standup",      // scheduled, earliest
		"Dentist",      // scheduled, later
		"Call mom",     // unscheduled, most recently updated
		"Write report", // unscheduled, older
		"Old invoice",  // completed + scheduled
		"Buy milk",     // completed, unscheduled
	}, titles(got))
}

func TestFilter_TiesKeepCollectionOrder(t *testing.T) {
	tasks := []models.Task{
		{ID: "a", Title: "a", LastUpdatedAt: ts(0)},
		{ID: "b", Title: "b", LastUpdatedAt: ts(0)},
		{ID: "c", Title: "c", LastUpdatedAt: ts(0)},
	}

	assert.Equal(t, []string{"a", "b", "c"}, titles(Filter(tasks, nil, nil, "")))
}

func TestFilter_CompletedSelector(t *testing.T) {
	tasks, tags := fixture()
	sel := models.CompletedFilter

	got := Filter(tasks, tags, &sel, "")

	require.Len(t, got, 2)
	for _, task := range got {
		assert.True(t, task.Completed)
	}
}

func TestFilter_TagSelector(t *testing.T) {
	tasks, tags := fixture()
	sel := "tag-work"

	got := Filter(tasks, tags, &sel, "")

	assert.Equal(t, []string{"Standup", "Write report", "Old invoice"}, titles(got))
}

func TestFilter_Search(t *testing.T) {
	tasks, tags := fixture()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"title substring", "MILK", []string{"Buy milk"}},
		{"tag name", "shop", []string{"Buy milk"}},
		{"tag name or title", "wor", []string{"Standup", "Write report", "Old invoice"}},
		{"no match", "zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(Filter(tasks, tags, nil, tt.query)))
		})
	}
}

func TestFilter_SearchUnicodeFolding(t *testing.T) {
	tasks := []models.Task{
		{ID: "1", Title: "Straße fegen", Tags: []string{}},
		{ID: "2", Title: "ÉTÉ plans", Tags: []string{}},
	}

	assert.Equal(t, []string{"Straße fegen"}, titles(Filter(tasks, nil, nil, "STRASSE")))
	assert.Equal(t, []string{"ÉTÉ plans"}, titles(Filter(tasks, nil, nil, "été")))
}

func TestFilter_TagAndSearchCombine(t *testing.T) {
	tasks, tags := fixture()
	sel := "tag-work"

	got := Filter(tasks, tags, &sel, "report")

	assert.Equal(t, []string{"Write report"}, titles(got))
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	tasks, tags := fixture()
	before := titles(tasks)

	got := Filter(tasks, tags, nil, "")
	got[0].Title = "changed"

	assert.Equal(t, before, titles(tasks))
}

func TestCountTasks(t *testing.T) {
	tasks, _ := fixture()

	c := CountTasks(tasks)

	assert.Equal(t, 6, c.All)
	assert.Equal(t, 2, c.Completed)
	assert.Equal(t, 3, c.ByTag["tag-work"])
	assert.Equal(t, 1, c.ByTag["tag-shop"])
	assert.Zero(t, c.ByTag["tag-none"])
}

func TestStore_VisibleTasks(t *testing.T) {
	s, clock, _ := newTestStore(t)
	work := s.AddTag("Work", "#2196f3")
	s.AddTask("report", []string{work.ID}, nil)
	clock.Advance(time.Second)
	done := s.AddTask("done", nil, nil)
	s.ToggleTask(done.ID)

	assert.Equal(t, []string{"report", "done"}, titles(s.VisibleTasks()))

	s.SetSelectedTag(&work.ID)
	assert.Equal(t, []string{"report"}, titles(s.VisibleTasks()))

	s.SetSelectedTag(nil)
	s.SetSearchQuery("DON")
	assert.Equal(t, []string{"done"}, titles(s.VisibleTasks()))

	c := s.Counts()
	assert.Equal(t, 2, c.All)
	assert.Equal(t, 1, c.Completed)
	assert.Equal(t, 1, c.ByTag[work.ID])
}
