package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/tgienger/tdl/internal/ids"
	"github.com/tgienger/tdl/internal/models"
)

// SnapshotVersion is written with every snapshot. Older versions are upgraded on load.
const SnapshotVersion = 1

// ErrUnsupportedVersion is returned when a snapshot was written by a newer release
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// State is everything the store owns: both collections plus the two UI selection fields.
type State struct {
	Tasks       []models.Task `json:"todos"`
	Tags        []models.Tag  `json:"tags"`
	SelectedTag *string       `json:"selectedTag"`
	SearchQuery string        `json:"searchQuery"`
}

// snapshot is the persisted envelope around State
type snapshot struct {
	State   State `json:"state"`
	Version int   `json:"version"`
}

// Clone returns a deep copy of s
func (s State) Clone() State {
	c := State{
		Tasks:       make([]models.Task, len(s.Tasks)),
		Tags:        slices.Clone(s.Tags),
		SearchQuery: s.SearchQuery,
	}
	if c.Tags == nil {
		c.Tags = []models.Tag{}
	}
	for i, t := range s.Tasks {
		c.Tasks[i] = t.Clone()
	}
	if s.SelectedTag != nil {
		sel := *s.SelectedTag
		c.SelectedTag = &sel
	}
	return c
}

// DefaultTags are created for a brand new store
var DefaultTags = []models.Tag{
	{Name: "Personal", Color: "#9c27b0"},
	{Name: "Work", Color: "#2196f3"},
	{Name: "Shopping", Color: "#ff9800"},
}

// DefaultState returns the state of a first run: no tasks and the default tags
func DefaultState(newID func(prefix string) string) State {
	if newID == nil {
		newID = ids.MustGenerate
	}
	st := State{Tasks: []models.Task{}, Tags: make([]models.Tag, len(DefaultTags))}
	for i, tag := range DefaultTags {
		tag.ID = newID(ids.TagPrefix)
		st.Tags[i] = tag
	}
	return st
}

// Marshal serializes the whole state as one snapshot document
func Marshal(s State) ([]byte, error) {
	data, err := json.Marshal(snapshot{State: s.Clone(), Version: SnapshotVersion})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// Unmarshal parses a snapshot document written by Marshal
func Unmarshal(data []byte) (State, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return State{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snap.Version > SnapshotVersion {
		return State{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}

	// Version 0 snapshots carry no ordering or shape differences, only nil collections
	st := snap.State
	if st.Tasks == nil {
		st.Tasks = []models.Task{}
	}
	if st.Tags == nil {
		st.Tags = []models.Tag{}
	}
	for i := range st.Tasks {
		if st.Tasks[i].Tags == nil {
			st.Tasks[i].Tags = []string{}
		}
	}
	return st, nil
}
