package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tdl/internal/models"
	"github.com/tgienger/tdl/internal/quickadd"
	"github.com/tgienger/tdl/internal/store"
	"github.com/tgienger/tdl/internal/ui/keys"
	"github.com/tgienger/tdl/internal/ui/styles"
	"github.com/tgienger/tdl/internal/validation"
)

// FocusArea represents which part of the task pane has focus
type FocusArea int

const (
	FocusTaskList FocusArea = iota
	FocusSearchInput
)

const scheduleLayout = "2006-01-02 15:04"

// TaskListView shows the visible tasks grouped into Active and Completed
type TaskListView struct {
	store     *store.Store
	validator *validation.Validator
	styles    *styles.Styles
	keys      keys.KeyMap
	now       func() time.Time

	state   store.State
	visible []models.Task

	width   int
	height  int
	focused bool

	// UI state
	focus       FocusArea
	cursor      int
	scrollY     int
	searchInput textinput.Model

	// Task editing
	editing       bool
	editID        string
	editTitle     textinput.Model
	editSchedule  textinput.Model
	editTags      []string
	editTagCursor int
	editFocusIdx  int // 0=title, 1=schedule, 2=tags, 3=save
	editErr       string

	// Bulk add
	adding       bool
	addText      textarea.Model
	addTags      []string
	addTagCursor int
	addFocusIdx  int // 0=text, 1=tags, 2=save
	addErr       string

	// Delete confirmation
	confirmingDelete bool
	deleteTarget     models.Task

	// Help popup
	showHelpPopup bool
}

// NewTaskListView creates the task pane
func NewTaskListView(s *store.Store, v *validation.Validator, now func() time.Time) *TaskListView {
	if now == nil {
		now = time.Now
	}

	search := textinput.New()
	search.Placeholder = "Search..."
	search.CharLimit = 100

	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"
	editTitle.CharLimit = 500

	editSchedule := textinput.New()
	editSchedule.Placeholder = "YYYY-MM-DD HH:MM (blank for none)"
	editSchedule.CharLimit = 19

	addText := textarea.New()
	addText.Placeholder = "One task per line.\nAdd a date like 2024/12/03 10:00 or 12/3 to schedule it."
	addText.CharLimit = 20000
	addText.SetWidth(50)
	addText.SetHeight(6)
	addText.ShowLineNumbers = false

	tv := &TaskListView{
		store:        s,
		validator:    v,
		styles:       styles.NewStyles(),
		keys:         keys.DefaultKeyMap(),
		now:          now,
		focus:        FocusTaskList,
		searchInput:  search,
		editTitle:    editTitle,
		editSchedule: editSchedule,
		addText:      addText,
	}
	tv.SetState(s.State())
	tv.searchInput.SetValue(tv.state.SearchQuery)
	return tv
}

// Init implements tea.Model
func (v *TaskListView) Init() tea.Cmd { return nil }

// SetState refreshes the visible tasks from a store snapshot
func (v *TaskListView) SetState(st store.State) {
	v.state = st
	v.visible = store.Filter(st.Tasks, st.Tags, st.SelectedTag, st.SearchQuery)
	if v.cursor >= len(v.visible) {
		v.cursor = max(0, len(v.visible)-1)
	}
	if v.focus != FocusSearchInput && v.searchInput.Value() != st.SearchQuery {
		v.searchInput.SetValue(st.SearchQuery)
	}
	v.ensureVisible()
}

func (v *TaskListView) refresh() {
	v.SetState(v.store.State())
}

// SetSize sets the pane dimensions
func (v *TaskListView) SetSize(width, height int) {
	v.width = width
	v.height = height
	inputWidth := styles.Clamp(width-10, 20, 60)
	v.addText.SetWidth(inputWidth)
	v.ensureVisible()
}

// Focus gives the pane keyboard focus, optionally in the search box
func (v *TaskListView) Focus(search bool) tea.Cmd {
	v.focused = true
	if search {
		v.focus = FocusSearchInput
		return v.searchInput.Focus()
	}
	v.focus = FocusTaskList
	v.searchInput.Blur()
	return nil
}

// Blur removes keyboard focus
func (v *TaskListView) Blur() {
	v.focused = false
	v.searchInput.Blur()
	v.focus = FocusTaskList
}

// Modal reports whether a form, prompt or text input is capturing keys
func (v *TaskListView) Modal() bool {
	return v.editing || v.adding || v.confirmingDelete || v.showHelpPopup || v.focus == FocusSearchInput
}

// Selected returns the task under the cursor
func (v *TaskListView) Selected() (models.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.visible) {
		return models.Task{}, false
	}
	return v.visible[v.cursor], true
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		// cursor blink and other textinput/textarea messages
		var cmd tea.Cmd
		switch {
		case v.adding:
			v.addText, cmd = v.addText.Update(msg)
		case v.editing && v.editFocusIdx == 0:
			v.editTitle, cmd = v.editTitle.Update(msg)
		case v.editing && v.editFocusIdx == 1:
			v.editSchedule, cmd = v.editSchedule.Update(msg)
		case v.focus == FocusSearchInput:
			v.searchInput, cmd = v.searchInput.Update(msg)
		}
		return v, cmd
	}

	// Handle help popup first - any key closes it
	if v.showHelpPopup {
		v.showHelpPopup = false
		return v, nil
	}
	if v.confirmingDelete {
		return v.updateConfirmDelete(keyMsg)
	}
	if v.editing {
		return v.updateEditing(keyMsg)
	}
	if v.adding {
		return v.updateAdding(keyMsg)
	}
	return v.updateNormal(keyMsg)
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle search input typing first - don't process hotkeys while typing
	if v.focus == FocusSearchInput {
		switch {
		case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Tab):
			v.searchInput.Blur()
			v.focus = FocusTaskList
			return v, nil
		default:
			var cmd tea.Cmd
			v.searchInput, cmd = v.searchInput.Update(msg)
			if q := v.searchInput.Value(); q != v.state.SearchQuery {
				v.store.SetSearchQuery(q)
				v.cursor = 0
				v.scrollY = 0
				v.refresh()
			}
			return v, cmd
		}
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if v.state.SearchQuery != "" {
			v.searchInput.SetValue("")
			v.store.SetSearchQuery("")
			v.refresh()
		}
		return v, nil

	case key.Matches(msg, v.keys.Tab), key.Matches(msg, v.keys.Filter):
		return v, func() tea.Msg { return FocusSidebar{} }

	case key.Matches(msg, v.keys.Search):
		v.focus = FocusSearchInput
		return v, v.searchInput.Focus()

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.visible)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if t, ok := v.Selected(); ok {
			v.store.ToggleTask(t.ID)
			v.refresh()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Edit):
		if t, ok := v.Selected(); ok {
			v.startEditTask(t)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startAdding()
		return v, textarea.Blink

	case key.Matches(msg, v.keys.Delete):
		if t, ok := v.Selected(); ok {
			v.confirmingDelete = true
			v.deleteTarget = t
		}
		return v, nil

	case key.Matches(msg, v.keys.ShowCompleted):
		if v.state.SelectedTag != nil && *v.state.SelectedTag == models.CompletedFilter {
			v.store.SetSelectedTag(nil)
		} else {
			v.store.SetSelectedTag(models.Ptr(models.CompletedFilter))
		}
		v.cursor = 0
		v.scrollY = 0
		v.refresh()
		return v, nil

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.store.DeleteTask(v.deleteTarget.ID)
		v.confirmingDelete = false
		v.refresh()
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *TaskListView) startEditTask(task models.Task) {
	v.editing = true
	v.editID = task.ID
	v.editFocusIdx = 0
	v.editTagCursor = 0
	v.editErr = ""
	v.editTags = append([]string(nil), task.Tags...)
	v.editTitle.SetValue(task.Title)
	v.editTitle.CursorEnd()
	if task.ScheduledAt != nil {
		v.editSchedule.SetValue(task.ScheduledAt.Format(scheduleLayout))
	} else {
		v.editSchedule.SetValue("")
	}
	v.updateEditFocus()
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		v.saveTask()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % 4
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.ShiftTab):
		v.editFocusIdx = (v.editFocusIdx + 3) % 4
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.editFocusIdx {
		case 0, 1:
			v.editFocusIdx++
			v.updateEditFocus()
		case 2:
			v.toggleEditTag()
		case 3:
			v.saveTask()
		}
		return v, nil

	case msg.String() == " ":
		// Space also toggles tags when in tag selector
		if v.editFocusIdx == 2 {
			v.toggleEditTag()
			return v, nil
		}

	case key.Matches(msg, v.keys.Up):
		if v.editFocusIdx == 2 {
			if v.editTagCursor > 0 {
				v.editTagCursor--
			}
			return v, nil
		}

	case key.Matches(msg, v.keys.Down):
		if v.editFocusIdx == 2 {
			if v.editTagCursor < len(v.state.Tags)-1 {
				v.editTagCursor++
			}
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case 0:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case 1:
		v.editSchedule, cmd = v.editSchedule.Update(msg)
	}
	return v, cmd
}

// toggleEditTag toggles the currently selected tag in the edit form
func (v *TaskListView) toggleEditTag() {
	if v.editTagCursor < len(v.state.Tags) {
		v.editTags = toggleID(v.editTags, v.state.Tags[v.editTagCursor].ID)
	}
}

func (v *TaskListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editSchedule.Blur()

	switch v.editFocusIdx {
	case 0:
		v.editTitle.Focus()
	case 1:
		v.editSchedule.Focus()
	}
}

func (v *TaskListView) saveTask() {
	title := strings.TrimSpace(v.editTitle.Value())
	if err := v.validator.Task(title); err != nil {
		v.editErr = err.Error()
		return
	}
	when, err := quickadd.ParseSchedule(v.editSchedule.Value())
	if err != nil {
		v.editErr = err.Error()
		return
	}

	tags := append([]string{}, v.editTags...)
	patch := models.TaskPatch{Title: &title, Tags: &tags}
	if when == nil {
		patch.ClearSchedule = true
	} else {
		patch.ScheduledAt = models.ScheduledAtPtr(when)
	}
	v.store.UpdateTask(v.editID, patch)

	v.editing = false
	v.refresh()
}

func (v *TaskListView) startAdding() {
	v.adding = true
	v.addFocusIdx = 0
	v.addTagCursor = 0
	v.addErr = ""
	v.addText.Reset()
	v.addTags = []string{}
	// new tasks land in the tag being viewed
	if sel := v.state.SelectedTag; sel != nil && *sel != models.CompletedFilter {
		v.addTags = append(v.addTags, *sel)
	}
	v.updateAddFocus()
}

func (v *TaskListView) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.adding = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		v.saveBulk()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.addFocusIdx = (v.addFocusIdx + 1) % 3
		v.updateAddFocus()
		return v, nil

	case key.Matches(msg, v.keys.ShiftTab):
		v.addFocusIdx = (v.addFocusIdx + 2) % 3
		v.updateAddFocus()
		return v, nil
	}

	switch v.addFocusIdx {
	case 0:
		// Enter passes through for newlines
		var cmd tea.Cmd
		v.addText, cmd = v.addText.Update(msg)
		return v, cmd

	case 1:
		switch {
		case key.Matches(msg, v.keys.Up):
			if v.addTagCursor > 0 {
				v.addTagCursor--
			}
		case key.Matches(msg, v.keys.Down):
			if v.addTagCursor < len(v.state.Tags)-1 {
				v.addTagCursor++
			}
		case key.Matches(msg, v.keys.Enter), msg.String() == " ":
			if v.addTagCursor < len(v.state.Tags) {
				v.addTags = toggleID(v.addTags, v.state.Tags[v.addTagCursor].ID)
			}
		}

	case 2:
		if key.Matches(msg, v.keys.Enter) {
			v.saveBulk()
		}
	}
	return v, nil
}

func (v *TaskListView) updateAddFocus() {
	v.addText.Blur()
	if v.addFocusIdx == 0 {
		v.addText.Focus()
	}
}

func (v *TaskListView) saveBulk() {
	added := v.store.AddTasksFromText(v.addText.Value(), v.addTags)
	if len(added) == 0 {
		v.addErr = "Enter at least one task"
		return
	}
	v.adding = false
	v.cursor = 0
	v.scrollY = 0
	v.refresh()
}

// itemsPerPage is how many two-line task items fit below the header
func (v *TaskListView) itemsPerPage() int {
	// header (3) + group headers (2) + help (2)
	return max((v.height-7)/2, 1)
}

func (v *TaskListView) ensureVisible() {
	visibleItems := v.itemsPerPage()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visibleItems {
		v.scrollY = v.cursor - visibleItems + 1
	}
}

// View renders the view
func (v *TaskListView) View() string {
	switch {
	case v.showHelpPopup:
		return v.renderHelpPopup()
	case v.confirmingDelete:
		return renderConfirm(v.styles, "Delete Task?", truncate(v.deleteTarget.Title, v.width-4), v.width, v.height)
	case v.editing:
		return v.renderEditForm()
	case v.adding:
		return v.renderAddForm()
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return lipgloss.NewStyle().Width(v.width).Height(v.height).Render(b.String())
}

// Title names the current filter
func (v *TaskListView) Title() string {
	sel := v.state.SelectedTag
	switch {
	case sel == nil:
		return "All Tasks"
	case *sel == models.CompletedFilter:
		return "Completed"
	}
	for _, t := range v.state.Tags {
		if t.ID == *sel {
			return t.Name
		}
	}
	return "All Tasks"
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	now := v.now()

	greeting := lipgloss.JoinHorizontal(lipgloss.Bottom,
		s.Greeting.Render(Greeting(now)),
		"  ",
		s.TitleMuted.Render(now.Format(HeaderDateLayout)),
	)

	searchStyle := s.Input
	if v.focus == FocusSearchInput {
		searchStyle = s.InputFocused
	}
	searchWidth := styles.Clamp(v.width-lipgloss.Width(v.Title())-10, 10, 30)
	searchBox := searchStyle.Width(searchWidth).Render(v.searchInput.View())

	title := s.Title.Render(v.Title())
	gap := max(v.width-lipgloss.Width(title)-lipgloss.Width(searchBox)-2, 1)
	bar := lipgloss.JoinHorizontal(lipgloss.Center, " "+title, strings.Repeat(" ", gap), searchBox)

	return lipgloss.JoinVertical(lipgloss.Left, " "+greeting, bar)
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.visible) == 0 {
		msg := "No tasks. Press 'n' to add some."
		if len(v.state.Tasks) > 0 {
			msg = "Nothing matches this filter."
		}
		return s.TitleMuted.Padding(1, 1).Render(msg)
	}

	var items []string
	endIdx := min(v.scrollY+v.itemsPerPage(), len(v.visible))
	for i := v.scrollY; i < endIdx; i++ {
		task := v.visible[i]
		if i == v.scrollY || task.Completed != v.visible[i-1].Completed {
			items = append(items, v.renderGroupHeader(task.Completed))
		}
		items = append(items, v.renderTaskItem(task, v.focused && i == v.cursor && v.focus == FocusTaskList))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderGroupHeader(completed bool) string {
	n := 0
	for _, t := range v.visible {
		if t.Completed == completed {
			n++
		}
	}
	label := "Active"
	if completed {
		label = "Completed"
	}
	return v.styles.GroupHeader.Render(fmt.Sprintf("%s (%d)", label, n))
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	width := max(v.width-2, 20)

	checkbox := "[ ] "
	titleStyle := s.TaskTitle
	if task.Completed {
		checkbox = "[x] "
		titleStyle = s.TaskDone
	}
	titleLine := checkbox + titleStyle.Render(truncate(task.Title, width-6))

	var meta []string
	if task.ScheduledAt != nil {
		when := task.ScheduledAt.Format("Mon 2 Jan 15:04")
		if !task.Completed && task.ScheduledAt.Time.Before(v.now()) {
			meta = append(meta, s.Overdue.Render("◷ "+when))
		} else {
			meta = append(meta, s.Scheduled.Render("◷ "+when))
		}
	}
	for _, id := range task.Tags {
		for _, tag := range v.state.Tags {
			if tag.ID == id {
				meta = append(meta, styles.Chip(tag.Name, tag.Color))
				break
			}
		}
	}
	metaLine := "    " + strings.Join(meta, "  ")
	if len(meta) == 0 {
		metaLine = "    " + s.TitleMuted.Render("no tags")
	}

	itemStyle := s.ListItem
	if selected {
		itemStyle = s.ListSelected
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		itemStyle.Width(width).Render(titleLine),
		itemStyle.Width(width).Render(metaLine),
	)
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles

	titleStyle := s.Input
	scheduleStyle := s.Input
	tagsStyle := s.Input
	btnStyle := s.Button

	switch v.editFocusIdx {
	case 0:
		titleStyle = s.InputFocused
	case 1:
		scheduleStyle = s.InputFocused
	case 2:
		tagsStyle = s.InputFocused
	case 3:
		btnStyle = s.ButtonFocused
	}

	inputWidth := styles.Clamp(v.width-6, 20, 60)

	lines := []string{
		s.Title.Render("Edit Task"),
		"",
		"Title:",
		titleStyle.Width(inputWidth).Render(v.editTitle.View()),
		"Scheduled:",
		scheduleStyle.Width(inputWidth).Render(v.editSchedule.View()),
		"Tags:",
		tagsStyle.Width(inputWidth).Render(renderTagChecklist(s, v.state.Tags, v.editTags, v.editTagCursor, v.editFocusIdx == 2)),
		"",
		btnStyle.Render(" Save "),
	}
	if v.editErr != "" {
		lines = append(lines, s.Error.Width(inputWidth).Render(v.editErr))
	}
	lines = append(lines, "", s.TitleMuted.Width(inputWidth).Render("Tab: next • ↑↓: select tag • Space/↵: toggle • Ctrl+S: save • Esc: cancel"))

	return lipgloss.Place(v.width, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
}

func (v *TaskListView) renderAddForm() string {
	s := v.styles

	textStyle := s.Input
	tagsStyle := s.Input
	btnStyle := s.Button

	switch v.addFocusIdx {
	case 0:
		textStyle = s.InputFocused
	case 1:
		tagsStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}

	inputWidth := styles.Clamp(v.width-6, 20, 60)
	lineCount := len(quickadd.SplitLines(v.addText.Value()))

	lines := []string{
		s.Title.Render("Add Tasks"),
		"",
		textStyle.Render(v.addText.View()),
		s.TitleMuted.Render(fmt.Sprintf("%d task(s)", lineCount)),
		"Tags:",
		tagsStyle.Width(inputWidth).Render(renderTagChecklist(s, v.state.Tags, v.addTags, v.addTagCursor, v.addFocusIdx == 1)),
		"",
		btnStyle.Render(" Add "),
	}
	if v.addErr != "" {
		lines = append(lines, s.Error.Render(v.addErr))
	}
	lines = append(lines, "", s.TitleMuted.Width(inputWidth).Render("Tab: next • Space/↵: toggle tag • Ctrl+S: add • Esc: cancel"))

	return lipgloss.Place(v.width, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
}

func (v *TaskListView) renderHelp() string {
	// At narrow widths, show hint to press ? for help
	if v.width > 0 && v.width < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	completedLabel := "done"
	if v.state.SelectedTag != nil && *v.state.SelectedTag == models.CompletedFilter {
		completedLabel = "all"
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s toggle • %s edit • %s new • %s del • %s search • %s tags • %s %s • %s quit",
			v.styles.HelpKey.Render("space"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("f"),
			v.styles.HelpKey.Render("c"),
			completedLabel,
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	completedLabel := "show completed"
	if v.state.SelectedTag != nil && *v.state.SelectedTag == models.CompletedFilter {
		completedLabel = "show all"
	}

	return renderHelpPopup(v.styles, [][2]string{
		{"space", "toggle completed"},
		{"↵ / e", "edit task"},
		{"n", "add tasks"},
		{"d", "delete task"},
		{"/", "search"},
		{"esc", "clear search"},
		{"f / tab", "tag sidebar"},
		{"c", completedLabel},
		{"U", "check for updates"},
		{"q", "quit"},
	}, v.width, v.height)
}

func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
