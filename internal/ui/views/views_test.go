package views

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/tdl/internal/models"
	"github.com/tgienger/tdl/internal/store"
	"github.com/tgienger/tdl/internal/validation"
)

var testNow = time.Date(2026, time.October, 17, 9, 30, 0, 0, time.Local)

func sequentialIDs() func(string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// newTestStore returns a store seeded with the default tags (tag-1..tag-3)
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	newID := sequentialIDs()
	return store.New(
		store.WithState(store.DefaultState(newID)),
		store.WithIDs(newID),
		store.WithClock(func() time.Time { return testNow }),
	)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m tea.Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	space = tea.KeyMsg{Type: tea.KeySpace}
	save  = tea.KeyMsg{Type: tea.KeyCtrlS}
)

func TestGreeting(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, "Good Evening!"},
		{5, "Good Evening!"},
		{6, "Good Morning!"},
		{11, "Good Morning!"},
		{12, "Good Afternoon!"},
		{17, "Good Afternoon!"},
		{18, "Good Evening!"},
		{23, "Good Evening!"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%02d:00", tt.hour), func(t *testing.T) {
			now := time.Date(2026, time.October, 17, tt.hour, 0, 0, 0, time.Local)
			assert.Equal(t, tt.want, Greeting(now))
		})
	}
}

func TestToggleID(t *testing.T) {
	ids := toggleID(nil, "tag-1")
	assert.Equal(t, []string{"tag-1"}, ids)
	ids = toggleID(ids, "tag-2")
	assert.Equal(t, []string{"tag-1", "tag-2"}, ids)
	ids = toggleID(ids, "tag-1")
	assert.Equal(t, []string{"tag-2"}, ids)
}

func TestSidebar_SelectTag(t *testing.T) {
	s := newTestStore(t)
	v := NewSidebarView(s, validation.New())
	v.SetSize(26, 20)
	v.Focus()

	// All, Completed, Personal
	cmd := press(v, runes("j"), runes("j"), enter)

	require.NotNil(t, s.State().SelectedTag)
	assert.Equal(t, "tag-1", *s.State().SelectedTag)
	require.NotNil(t, cmd)
	assert.Equal(t, FocusTasks{}, cmd())
}

func TestSidebar_SelectAll(t *testing.T) {
	s := newTestStore(t)
	s.SetSelectedTag(models.Ptr("tag-2"))
	v := NewSidebarView(s, validation.New())
	v.SetSize(26, 20)

	press(v, enter)

	assert.Nil(t, s.State().SelectedTag)
}

func TestSidebar_NewTag(t *testing.T) {
	s := newTestStore(t)
	v := NewSidebarView(s, validation.New())
	v.SetSize(26, 20)

	press(v, runes("n"))
	require.True(t, v.Modal())

	press(v, runes("Errands"), save)

	assert.False(t, v.Modal())
	tags := s.Tags()
	require.Len(t, tags, 4)
	assert.Equal(t, "Errands", tags[3].Name)
	assert.Equal(t, models.TagPalette[3], tags[3].Color)
}

func TestSidebar_NewTagRequiresName(t *testing.T) {
	s := newTestStore(t)
	v := NewSidebarView(s, validation.New())
	v.SetSize(26, 20)

	press(v, runes("n"), runes("   "), save)

	assert.True(t, v.Modal())
	assert.Contains(t, v.formErr, "required")
	assert.Len(t, s.Tags(), 3)
}

func TestSidebar_EditTagColor(t *testing.T) {
	s := newTestStore(t)
	v := NewSidebarView(s, validation.New())
	v.SetSize(26, 20)

	press(v, runes("j"), runes("j"), runes("e"))
	require.True(t, v.Modal())
	assert.Equal(t, "Personal", v.nameInput.Value())

	// move to the palette and step one color right
	press(v, tab, runes("l"), save)

	tag, ok := s.Tag("tag-1")
	require.True(t, ok)
	assert.Equal(t, "Personal", tag.Name)
	assert.Equal(t, models.TagPalette[(v.colorIdx)], tag.Color)
	assert.NotEqual(t, "#9c27b0", tag.Color)
}

func TestSidebar_DeleteTag(t *testing.T) {
	s := newTestStore(t)
	task := s.AddTask("Report", []string{"tag-2"}, nil)
	v := NewSidebarView(s, validation.New())
	v.SetSize(26, 20)

	// Work
	press(v, runes("j"), runes("j"), runes("j"), runes("d"))
	require.True(t, v.Modal())
	press(v, runes("y"))

	assert.False(t, v.Modal())
	assert.Len(t, s.Tags(), 2)
	got, _ := s.Task(task.ID)
	assert.Empty(t, got.Tags)
}

func TestSidebar_CancelDelete(t *testing.T) {
	s := newTestStore(t)
	v := NewSidebarView(s, validation.New())
	v.SetSize(26, 20)

	press(v, runes("j"), runes("j"), runes("d"), runes("n"))

	assert.False(t, v.Modal())
	assert.Len(t, s.Tags(), 3)
}

func TestSidebar_Counts(t *testing.T) {
	s := newTestStore(t)
	s.AddTask("a", []string{"tag-1"}, nil)
	done := s.AddTask("b", []string{"tag-1"}, nil)
	s.ToggleTask(done.ID)

	v := NewSidebarView(s, validation.New())
	items := v.list.Items()
	require.Len(t, items, 5)

	all := items[0].(sidebarItem)
	completed := items[1].(sidebarItem)
	personal := items[2].(sidebarItem)
	assert.Equal(t, 2, all.count)
	assert.Equal(t, 1, completed.count)
	assert.Equal(t, 1, personal.count)
}

func newTaskView(t *testing.T, s *store.Store) *TaskListView {
	t.Helper()
	v := NewTaskListView(s, validation.New(), func() time.Time { return testNow })
	v.SetSize(70, 30)
	v.Focus(false)
	return v
}

func TestTaskList_Toggle(t *testing.T) {
	s := newTestStore(t)
	task := s.AddTask("Buy milk", nil, nil)
	v := newTaskView(t, s)

	press(v, space)

	got, _ := s.Task(task.ID)
	assert.True(t, got.Completed)

	press(v, runes("x"))
	got, _ = s.Task(task.ID)
	assert.False(t, got.Completed)
}

func TestTaskList_BulkAdd(t *testing.T) {
	s := newTestStore(t)
	v := newTaskView(t, s)

	press(v, runes("n"))
	require.True(t, v.Modal())

	press(v, runes("Buy milk"), enter, runes("Call mom 2026/12/03 10:00"), save)

	assert.False(t, v.Modal())
	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Nil(t, tasks[0].ScheduledAt)
	assert.Equal(t, "Call mom", tasks[1].Title)
	require.NotNil(t, tasks[1].ScheduledAt)
	assert.Equal(t, "2026-12-03 10:00:00", tasks[1].ScheduledAt.String())
}

func TestTaskList_BulkAddUsesSelectedTag(t *testing.T) {
	s := newTestStore(t)
	s.SetSelectedTag(models.Ptr("tag-3"))
	v := newTaskView(t, s)

	press(v, runes("n"), runes("Eggs"), save)

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, []string{"tag-3"}, tasks[0].Tags)
}

func TestTaskList_BulkAddPicksTags(t *testing.T) {
	s := newTestStore(t)
	v := newTaskView(t, s)

	// tag list: Personal, Work; toggle Work
	press(v, runes("n"), runes("Report"), tab, runes("j"), space, save)

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, []string{"tag-2"}, tasks[0].Tags)
}

func TestTaskList_BulkAddEmpty(t *testing.T) {
	s := newTestStore(t)
	v := newTaskView(t, s)

	press(v, runes("n"), save)

	assert.True(t, v.Modal())
	assert.NotEmpty(t, v.addErr)
	assert.Empty(t, s.Tasks())

	press(v, esc)
	assert.False(t, v.Modal())
}

func TestTaskList_Edit(t *testing.T) {
	s := newTestStore(t)
	task := s.AddTask("Buy milk", []string{"tag-1"}, nil)
	v := newTaskView(t, s)

	press(v, runes("e"))
	require.True(t, v.editing)
	assert.Equal(t, "Buy milk", v.editTitle.Value())

	press(v,
		runes(" today"),
		tab, runes("2026-10-20 09:00"),
		tab, space, // untag Personal
		runes("j"), space, // tag Work
		save,
	)

	assert.False(t, v.editing)
	got, _ := s.Task(task.ID)
	assert.Equal(t, "Buy milk today", got.Title)
	require.NotNil(t, got.ScheduledAt)
	assert.Equal(t, "2026-10-20 09:00:00", got.ScheduledAt.String())
	assert.Equal(t, []string{"tag-2"}, got.Tags)
}

func TestTaskList_EditClearsSchedule(t *testing.T) {
	s := newTestStore(t)
	at := testNow.Add(time.Hour)
	task := s.AddTask("Dentist", nil, models.ScheduledAtPtr(&at))
	v := newTaskView(t, s)

	press(v, enter)
	require.True(t, v.editing)
	v.editSchedule.SetValue("")
	press(v, save)

	got, _ := s.Task(task.ID)
	assert.Nil(t, got.ScheduledAt)
}

func TestTaskList_EditValidation(t *testing.T) {
	s := newTestStore(t)
	task := s.AddTask("Buy milk", nil, nil)
	v := newTaskView(t, s)

	t.Run("blank title", func(t *testing.T) {
		press(v, runes("e"))
		v.editTitle.SetValue("  ")
		press(v, save)

		assert.True(t, v.editing)
		assert.Contains(t, v.editErr, "required")
		press(v, esc)
	})

	t.Run("bad schedule", func(t *testing.T) {
		press(v, runes("e"))
		v.editSchedule.SetValue("next tuesday")
		press(v, save)

		assert.True(t, v.editing)
		assert.Contains(t, v.editErr, "invalid schedule")
		press(v, esc)
	})

	got, _ := s.Task(task.ID)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Nil(t, got.ScheduledAt)
}

func TestTaskList_Delete(t *testing.T) {
	s := newTestStore(t)
	s.AddTask("Keep", nil, nil)
	v := newTaskView(t, s)

	press(v, runes("d"), runes("n"))
	assert.Len(t, s.Tasks(), 1)

	press(v, runes("d"), runes("y"))
	assert.Empty(t, s.Tasks())
	assert.False(t, v.Modal())
}

func TestTaskList_Search(t *testing.T) {
	s := newTestStore(t)
	s.AddTask("Buy milk", nil, nil)
	s.AddTask("Walk dog", nil, nil)
	v := newTaskView(t, s)
	require.Len(t, v.visible, 2)

	press(v, runes("/"))
	require.True(t, v.Modal())

	// typing hotkeys into the search box must not trigger them
	press(v, runes("d"), runes("o"), runes("g"))
	assert.Equal(t, "dog", s.State().SearchQuery)
	require.Len(t, v.visible, 1)
	assert.Equal(t, "Walk dog", v.visible[0].Title)
	assert.Len(t, s.Tasks(), 2)

	// esc leaves the box but keeps the query
	press(v, esc)
	assert.False(t, v.Modal())
	assert.Equal(t, "dog", s.State().SearchQuery)

	// a second esc clears it
	press(v, esc)
	assert.Empty(t, s.State().SearchQuery)
	assert.Len(t, v.visible, 2)
}

func TestTaskList_SearchMatchesTagName(t *testing.T) {
	s := newTestStore(t)
	s.AddTask("Eggs", []string{"tag-3"}, nil)
	s.AddTask("Report", []string{"tag-2"}, nil)
	v := newTaskView(t, s)

	press(v, runes("/"), runes("SHOP"))

	require.Len(t, v.visible, 1)
	assert.Equal(t, "Eggs", v.visible[0].Title)
}

func TestTaskList_ShowCompleted(t *testing.T) {
	s := newTestStore(t)
	s.AddTask("open", nil, nil)
	done := s.AddTask("done", nil, nil)
	s.ToggleTask(done.ID)
	v := newTaskView(t, s)

	press(v, runes("c"))
	require.NotNil(t, s.State().SelectedTag)
	assert.Equal(t, models.CompletedFilter, *s.State().SelectedTag)
	require.Len(t, v.visible, 1)
	assert.Equal(t, "done", v.visible[0].Title)
	assert.Equal(t, "Completed", v.Title())

	press(v, runes("c"))
	assert.Nil(t, s.State().SelectedTag)
	assert.Len(t, v.visible, 2)
	assert.Equal(t, "All Tasks", v.Title())
}

func TestTaskList_GroupsCompletedLast(t *testing.T) {
	s := newTestStore(t)
	first := s.AddTask("first", nil, nil)
	s.AddTask("second", nil, nil)
	s.ToggleTask(first.ID)
	v := newTaskView(t, s)

	require.Len(t, v.visible, 2)
	assert.Equal(t, "second", v.visible[0].Title)
	assert.Equal(t, "first", v.visible[1].Title)

	out := v.View()
	assert.Contains(t, out, "Active (1)")
	assert.Contains(t, out, "Completed (1)")
}

func TestTaskList_FocusMessages(t *testing.T) {
	s := newTestStore(t)
	v := newTaskView(t, s)

	cmd := press(v, tab)
	require.NotNil(t, cmd)
	assert.Equal(t, FocusSidebar{}, cmd())

	cmd = press(v, runes("f"))
	require.NotNil(t, cmd)
	assert.Equal(t, FocusSidebar{}, cmd())
}

func TestTaskList_HeaderAndEmptyState(t *testing.T) {
	s := newTestStore(t)
	v := newTaskView(t, s)

	out := v.View()
	assert.Contains(t, out, "Good Morning!")
	assert.Contains(t, out, "Sat 17 Oct 2026")
	assert.Contains(t, out, "No tasks")
}

func TestTaskList_SetStateRefreshes(t *testing.T) {
	s := newTestStore(t)
	v := newTaskView(t, s)
	require.Empty(t, v.visible)

	// changes made elsewhere arrive through SetState
	s.AddTask("from the CLI", nil, nil)
	v.SetState(s.State())

	require.Len(t, v.visible, 1)
	assert.Equal(t, "from the CLI", v.visible[0].Title)
}
