package models

import (
	"slices"
	"time"
)

// CompletedFilter is the reserved selector value that shows only completed tasks
const CompletedFilter = "completed"

// Tag represents a tag that can be applied to tasks
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Task represents a single task
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Completed     bool       `json:"completed"`
	CreatedAt     Timestamp  `json:"createdAt"`
	ScheduledAt   *Timestamp `json:"scheduledAt"`
	LastUpdatedAt Timestamp  `json:"lastUpdatedAt"`
	Tags          []string   `json:"tags"` // tag IDs, treated as a set
}

// HasTag reports whether the task carries the given tag ID
func (t Task) HasTag(tagID string) bool {
	return slices.Contains(t.Tags, tagID)
}

// Clone returns a copy that shares no memory with t
func (t Task) Clone() Task {
	c := t
	c.Tags = slices.Clone(t.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if t.ScheduledAt != nil {
		at := *t.ScheduledAt
		c.ScheduledAt = &at
	}
	return c
}

// TaskPatch holds the fields to merge into a task. Nil fields are left unchanged.
type TaskPatch struct {
	Title     *string
	Completed *bool
	// ScheduledAt replaces the schedule; ClearSchedule removes it and wins over ScheduledAt.
	ScheduledAt   *Timestamp
	ClearSchedule bool
	Tags          *[]string
}

// Apply merges the patch into t. ID and CreatedAt are never touched.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	switch {
	case p.ClearSchedule:
		t.ScheduledAt = nil
	case p.ScheduledAt != nil:
		at := *p.ScheduledAt
		t.ScheduledAt = &at
	}
	if p.Tags != nil {
		t.Tags = slices.Clone(*p.Tags)
		if t.Tags == nil {
			t.Tags = []string{}
		}
	}
}

// TagPatch holds the fields to merge into a tag
type TagPatch struct {
	Name  *string
	Color *string
}

// Apply merges the patch into t
func (p TagPatch) Apply(t *Tag) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
}

// Ptr returns a pointer to v, handy for building patches
func Ptr[T any](v T) *T {
	return &v
}

// ScheduledAtPtr converts an optional time into an optional timestamp
func ScheduledAtPtr(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	ts := NewTimestamp(*t)
	return &ts
}
