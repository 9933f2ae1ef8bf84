// Package store owns the process-wide task and tag collections.
//
// All mutation goes through Store methods. After every mutation the full state
// is handed to the Persister as one snapshot and then to every subscriber.
// Mutations that address an unknown ID are silent no-ops: they report false,
// persist nothing and notify nobody.
package store

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tgienger/tdl/internal/ids"
	"github.com/tgienger/tdl/internal/models"
	"github.com/tgienger/tdl/internal/quickadd"
)

// Persister receives a full snapshot after every mutation
type Persister interface {
	Save(State) error
}

// PersisterFunc adapts a function to Persister
type PersisterFunc func(State) error

func (f PersisterFunc) Save(s State) error { return f(s) }

// Listener is notified with a copy of the new state after each mutation
type Listener func(State)

// Store is the single owner of tasks, tags and the selection fields
type Store struct {
	mu        sync.Mutex
	state     State
	now       func() time.Time
	newID     func(prefix string) string
	persister Persister
	log       *zap.SugaredLogger

	listeners    map[int]Listener
	nextListener int
	lastSaveErr  error
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides ID generation
func WithIDs(newID func(prefix string) string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithPersister sets where snapshots are written
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithLogger sets the logger used to report persistence failures
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Store) { s.log = log }
}

// WithState sets the initial state, typically the snapshot loaded at startup
func WithState(st State) Option {
	return func(s *Store) { s.state = st.Clone() }
}

// New creates a store. Without WithState it starts empty.
func New(opts ...Option) *Store {
	s := &Store{
		state:     State{Tasks: []models.Task{}, Tags: []models.Tag{}},
		now:       time.Now,
		newID:     ids.MustGenerate,
		log:       zap.NewNop().Sugar(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTask creates one task and puts it at the front of the list
func (s *Store) AddTask(title string, tagIDs []string, scheduledAt *models.Timestamp) models.Task {
	var task models.Task
	s.mutate(func(st *State) bool {
		now := models.NewTimestamp(s.now())
		task = s.newTask(title, tagIDs, scheduledAt, now)
		st.Tasks = slices.Insert(st.Tasks, 0, task)
		return true
	})
	return task.Clone()
}

// AddTasksFromText creates one task per non-blank line of content, extracting
// dates with quickadd. The batch keeps its line order and goes in front of the
// existing tasks. All tasks share tagIDs and timestamps.
func (s *Store) AddTasksFromText(content string, tagIDs []string) []models.Task {
	lines := quickadd.SplitLines(content)
	if len(lines) == 0 {
		return nil
	}

	var batch []models.Task
	s.mutate(func(st *State) bool {
		clock := s.now()
		now := models.NewTimestamp(clock)
		batch = make([]models.Task, len(lines))
		for i, line := range lines {
			parsed := quickadd.ParseLine(line, clock)
			batch[i] = s.newTask(parsed.Title, tagIDs, models.ScheduledAtPtr(parsed.ScheduledAt), now)
		}
		st.Tasks = append(slices.Clone(batch), st.Tasks...)
		return true
	})

	out := make([]models.Task, len(batch))
	for i, t := range batch {
		out[i] = t.Clone()
	}
	return out
}

// ToggleTask flips the completion flag
func (s *Store) ToggleTask(id string) bool {
	return s.mutate(func(st *State) bool {
		i := taskIndex(st.Tasks, id)
		if i < 0 {
			return false
		}
		st.Tasks[i].Completed = !st.Tasks[i].Completed
		s.touch(&st.Tasks[i])
		return true
	})
}

// UpdateTask merges patch into the task
func (s *Store) UpdateTask(id string, patch models.TaskPatch) bool {
	return s.mutate(func(st *State) bool {
		i := taskIndex(st.Tasks, id)
		if i < 0 {
			return false
		}
		patch.Apply(&st.Tasks[i])
		s.touch(&st.Tasks[i])
		return true
	})
}

// DeleteTask removes the task
func (s *Store) DeleteTask(id string) bool {
	return s.mutate(func(st *State) bool {
		i := taskIndex(st.Tasks, id)
		if i < 0 {
			return false
		}
		st.Tasks = slices.Delete(st.Tasks, i, i+1)
		return true
	})
}

// AddTag creates a tag at the end of the tag list
func (s *Store) AddTag(name, color string) models.Tag {
	var tag models.Tag
	s.mutate(func(st *State) bool {
		tag = models.Tag{ID: s.newID(ids.TagPrefix), Name: name, Color: color}
		st.Tags = append(st.Tags, tag)
		return true
	})
	return tag
}

// UpdateTag merges patch into the tag
func (s *Store) UpdateTag(id string, patch models.TagPatch) bool {
	return s.mutate(func(st *State) bool {
		i := tagIndex(st.Tags, id)
		if i < 0 {
			return false
		}
		patch.Apply(&st.Tags[i])
		return true
	})
}

// DeleteTag removes the tag and strips it from every task. Tasks are kept.
// A tag filter pointing at the deleted tag is reset to "all".
func (s *Store) DeleteTag(id string) bool {
	return s.mutate(func(st *State) bool {
		i := tagIndex(st.Tags, id)
		if i < 0 {
			return false
		}
		st.Tags = slices.Delete(st.Tags, i, i+1)
		for j := range st.Tasks {
			st.Tasks[j].Tags = slices.DeleteFunc(st.Tasks[j].Tags, func(tagID string) bool {
				return tagID == id
			})
		}
		if st.SelectedTag != nil && *st.SelectedTag == id {
			st.SelectedTag = nil
		}
		return true
	})
}

// SetSelectedTag sets the active filter: nil for all, models.CompletedFilter, or a tag ID
func (s *Store) SetSelectedTag(tagID *string) {
	s.mutate(func(st *State) bool {
		if tagID == nil {
			st.SelectedTag = nil
		} else {
			sel := *tagID
			st.SelectedTag = &sel
		}
		return true
	})
}

// SetSearchQuery sets the search text
func (s *Store) SetSearchQuery(query string) {
	s.mutate(func(st *State) bool {
		st.SearchQuery = query
		return true
	})
}

// Replace swaps in a whole new state, as when importing a snapshot
func (s *Store) Replace(st State) {
	s.mutate(func(cur *State) bool {
		*cur = st.Clone()
		if cur.Tasks == nil {
			cur.Tasks = []models.Task{}
		}
		if cur.Tags == nil {
			cur.Tags = []models.Tag{}
		}
		return true
	})
}

// State returns a copy of the full state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Tasks returns a copy of the task collection, newest first
func (s *Store) Tasks() []models.Task {
	return s.State().Tasks
}

// Tags returns a copy of the tag collection in creation order
func (s *Store) Tags() []models.Tag {
	return s.State().Tags
}

// Task looks up a task by ID
func (s *Store) Task(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := taskIndex(s.state.Tasks, id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.state.Tasks[i].Clone(), true
}

// Tag looks up a tag by ID
func (s *Store) Tag(id string) (models.Tag, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := tagIndex(s.state.Tags, id)
	if i < 0 {
		return models.Tag{}, false
	}
	return s.state.Tags[i], true
}

// VisibleTasks applies the current tag filter and search query
func (s *Store) VisibleTasks() []models.Task {
	st := s.State()
	return Filter(st.Tasks, st.Tags, st.SelectedTag, st.SearchQuery)
}

// Counts returns the sidebar counters for the current state
func (s *Store) Counts() Counts {
	st := s.State()
	return CountTasks(st.Tasks)
}

// LastSaveError returns the error of the most recent failed save, or nil if the
// last save succeeded
func (s *Store) LastSaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaveErr
}

// Subscribe registers l for change notifications. Call the returned function to unsubscribe.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// mutate runs fn under the lock. When fn reports a change the new state is
// saved (still under the lock, so snapshots are written in mutation order) and
// listeners are notified after the lock is released.
func (s *Store) mutate(fn func(*State) bool) bool {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return false
	}
	snap := s.state.Clone()
	s.save(snap)
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap.Clone())
	}
	return true
}

func (s *Store) save(snap State) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(snap); err != nil {
		s.log.Errorw("Failed to persist snapshot", "error", err)
		s.lastSaveErr = err
		return
	}
	s.lastSaveErr = nil
}

func (s *Store) newTask(title string, tagIDs []string, scheduledAt *models.Timestamp, now models.Timestamp) models.Task {
	tags := slices.Clone(tagIDs)
	if tags == nil {
		tags = []string{}
	}
	t := models.Task{
		ID:            s.newID(ids.TaskPrefix),
		Title:         title,
		CreatedAt:     now,
		LastUpdatedAt: now,
		Tags:          tags,
	}
	if scheduledAt != nil {
		at := *scheduledAt
		t.ScheduledAt = &at
	}
	return t
}

// touch sets LastUpdatedAt to now, never moving it backwards if the wall clock does
func (s *Store) touch(t *models.Task) {
	now := models.NewTimestamp(s.now())
	if now.Before(t.LastUpdatedAt) {
		return
	}
	t.LastUpdatedAt = now
}

func taskIndex(tasks []models.Task, id string) int {
	return slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == id })
}

func tagIndex(tags []models.Tag, id string) int {
	return slices.IndexFunc(tags, func(t models.Tag) bool { return t.ID == id })
}
