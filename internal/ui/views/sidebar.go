package views

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tdl/internal/models"
	"github.com/tgienger/tdl/internal/store"
	"github.com/tgienger/tdl/internal/ui/keys"
	"github.com/tgienger/tdl/internal/ui/styles"
	"github.com/tgienger/tdl/internal/validation"
)

// sidebarItem is one filter entry: All, Completed or a tag
type sidebarItem struct {
	label    string
	color    string
	count    int
	selector *string // nil for All
	tag      *models.Tag
}

func (i sidebarItem) FilterValue() string { return i.label }

func (i sidebarItem) selects(selected *string) bool {
	if i.selector == nil || selected == nil {
		return i.selector == nil && selected == nil
	}
	return *i.selector == *selected
}

type sidebarDelegate struct {
	styles   *styles.Styles
	width    int
	selected *string
	focused  bool
}

func (d *sidebarDelegate) Height() int                               { return 1 }
func (d *sidebarDelegate) Spacing() int                              { return 0 }
func (d *sidebarDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d *sidebarDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(sidebarItem)
	if !ok {
		return
	}

	marker := "  "
	if it.selects(d.selected) {
		marker = "› "
	}
	label := it.label
	if it.color != "" {
		label = lipgloss.NewStyle().Foreground(lipgloss.Color(it.color)).Render("●") + " " + label
	}
	count := fmt.Sprint(it.count)

	width := max(d.width, 10)
	gap := max(width-2-lipgloss.Width(marker+label)-len(count), 1)
	line := marker + label + strings.Repeat(" ", gap) + d.styles.Count.Render(count)

	if d.focused && index == m.Index() {
		fmt.Fprint(w, d.styles.ListSelected.Width(width).Render(line))
		return
	}
	fmt.Fprint(w, d.styles.ListItem.Width(width).Render(line))
}

// SidebarView lists the task filters and manages tags
type SidebarView struct {
	store     *store.Store
	validator *validation.Validator
	list      list.Model
	delegate  *sidebarDelegate
	styles    *styles.Styles
	keys      keys.KeyMap
	state     store.State
	width     int
	height    int
	focused   bool

	// Tag form
	editing   bool
	editingID string // empty while creating
	nameInput textinput.Model
	colorIdx  int
	formFocus int // 0=name, 1=color, 2=save
	formErr   string

	confirmingDelete bool
	deleteTarget     models.Tag
}

// NewSidebarView creates the sidebar
func NewSidebarView(s *store.Store, v *validation.Validator) *SidebarView {
	st := styles.NewStyles()

	nameInput := textinput.New()
	nameInput.Placeholder = "Tag name"
	nameInput.CharLimit = 32

	delegate := &sidebarDelegate{styles: st, width: styles.SidebarWidth - 4}

	l := list.New([]list.Item{}, delegate, styles.SidebarWidth-4, 10)
	l.Title = "Lists"
	l.Styles.Title = st.Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()

	sv := &SidebarView{
		store:     s,
		validator: v,
		list:      l,
		delegate:  delegate,
		styles:    st,
		keys:      keys.DefaultKeyMap(),
		nameInput: nameInput,
	}
	sv.SetState(s.State())
	return sv
}

// Init implements tea.Model
func (v *SidebarView) Init() tea.Cmd { return nil }

// SetState refreshes the entries and counts
func (v *SidebarView) SetState(st store.State) {
	v.state = st
	v.delegate.selected = st.SelectedTag

	counts := store.CountTasks(st.Tasks)
	items := make([]list.Item, 0, len(st.Tags)+2)
	items = append(items,
		sidebarItem{label: "All", count: counts.All},
		sidebarItem{label: "Completed", count: counts.Completed, selector: models.Ptr(models.CompletedFilter)},
	)
	for _, tag := range st.Tags {
		items = append(items, sidebarItem{
			label:    tag.Name,
			color:    tag.Color,
			count:    counts.ByTag[tag.ID],
			selector: &tag.ID,
			tag:      &tag,
		})
	}
	v.list.SetItems(items)
	if v.list.Index() >= len(items) {
		v.list.Select(len(items) - 1)
	}
}

// SetSize sets the height available to the sidebar
func (v *SidebarView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.delegate.width = width - 4
	v.list.SetSize(width-4, max(height-2, 3))
}

// Focus gives the sidebar keyboard focus
func (v *SidebarView) Focus() {
	v.focused = true
	v.delegate.focused = true
}

// Blur removes keyboard focus
func (v *SidebarView) Blur() {
	v.focused = false
	v.delegate.focused = false
}

// Modal reports whether a form or prompt is capturing keys
func (v *SidebarView) Modal() bool {
	return v.editing || v.confirmingDelete
}

// Update handles messages
func (v *SidebarView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if v.editing && v.formFocus == 0 {
			var cmd tea.Cmd
			v.nameInput, cmd = v.nameInput.Update(msg)
			return v, cmd
		}
		return v, nil
	}

	if v.confirmingDelete {
		return v.updateConfirmDelete(keyMsg)
	}
	if v.editing {
		return v.updateEditing(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(keyMsg, v.keys.Back), key.Matches(keyMsg, v.keys.Tab):
		return v, func() tea.Msg { return FocusTasks{} }

	case key.Matches(keyMsg, v.keys.Search):
		return v, func() tea.Msg { return FocusTasks{Search: true} }

	case key.Matches(keyMsg, v.keys.Enter):
		if item, ok := v.list.SelectedItem().(sidebarItem); ok {
			v.store.SetSelectedTag(item.selector)
			return v, func() tea.Msg { return FocusTasks{} }
		}
		return v, nil

	case key.Matches(keyMsg, v.keys.New):
		v.startForm(nil)
		return v, textinput.Blink

	case key.Matches(keyMsg, v.keys.Edit):
		if item, ok := v.list.SelectedItem().(sidebarItem); ok && item.tag != nil {
			v.startForm(item.tag)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(keyMsg, v.keys.Delete):
		if item, ok := v.list.SelectedItem().(sidebarItem); ok && item.tag != nil {
			v.confirmingDelete = true
			v.deleteTarget = *item.tag
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *SidebarView) startForm(tag *models.Tag) {
	v.editing = true
	v.formFocus = 0
	v.formErr = ""
	if tag == nil {
		v.editingID = ""
		v.nameInput.Reset()
		v.colorIdx = len(v.state.Tags) % len(models.TagPalette)
	} else {
		v.editingID = tag.ID
		v.nameInput.SetValue(tag.Name)
		v.colorIdx = 0
		for i, c := range models.TagPalette {
			if strings.EqualFold(c, tag.Color) {
				v.colorIdx = i
				break
			}
		}
	}
	v.updateFormFocus()
}

func (v *SidebarView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.store.DeleteTag(v.deleteTarget.ID)
		v.confirmingDelete = false
		v.SetState(v.store.State())
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *SidebarView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		v.saveTag()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.formFocus = (v.formFocus + 1) % 3
		v.updateFormFocus()
		return v, nil

	case key.Matches(msg, v.keys.ShiftTab):
		v.formFocus = (v.formFocus + 2) % 3
		v.updateFormFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.formFocus == 2 {
			v.saveTag()
			return v, nil
		}
		v.formFocus++
		v.updateFormFocus()
		return v, nil
	}

	if v.formFocus == 1 {
		n := len(models.TagPalette)
		switch {
		case key.Matches(msg, v.keys.Left):
			v.colorIdx = (v.colorIdx + n - 1) % n
		case key.Matches(msg, v.keys.Right):
			v.colorIdx = (v.colorIdx + 1) % n
		case key.Matches(msg, v.keys.Up):
			v.colorIdx = (v.colorIdx + n - paletteColumns) % n
		case key.Matches(msg, v.keys.Down):
			v.colorIdx = (v.colorIdx + paletteColumns) % n
		}
		return v, nil
	}

	if v.formFocus == 0 {
		var cmd tea.Cmd
		v.nameInput, cmd = v.nameInput.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *SidebarView) updateFormFocus() {
	v.nameInput.Blur()
	if v.formFocus == 0 {
		v.nameInput.Focus()
	}
}

func (v *SidebarView) saveTag() {
	name := strings.TrimSpace(v.nameInput.Value())
	color := models.TagPalette[v.colorIdx]
	if err := v.validator.Tag(name, color); err != nil {
		v.formErr = err.Error()
		return
	}

	if v.editingID == "" {
		v.store.AddTag(name, color)
	} else {
		v.store.UpdateTag(v.editingID, models.TagPatch{Name: &name, Color: &color})
	}
	v.editing = false
	v.SetState(v.store.State())
}

const paletteColumns = 6

// View renders the sidebar, or the tag form or delete prompt in its place
func (v *SidebarView) View() string {
	box := v.styles.Sidebar
	if v.focused {
		box = v.styles.SidebarFocused
	}
	height := max(v.height-2, 3)

	var content string
	switch {
	case v.confirmingDelete:
		content = renderConfirm(v.styles, "Delete Tag?",
			fmt.Sprintf("%q will be removed from every task.", v.deleteTarget.Name),
			v.width-4, height)
	case v.editing:
		content = v.renderForm()
	default:
		content = v.list.View() + "\n" + v.renderHelp()
	}

	return box.Width(v.width - 2).Height(height).Render(content)
}

func (v *SidebarView) renderForm() string {
	s := v.styles
	title := "New Tag"
	if v.editingID != "" {
		title = "Edit Tag"
	}

	nameStyle := s.Input
	if v.formFocus == 0 {
		nameStyle = s.InputFocused
	}
	btnStyle := s.Button
	if v.formFocus == 2 {
		btnStyle = s.ButtonFocused
	}

	var rows []string
	for start := 0; start < len(models.TagPalette); start += paletteColumns {
		var row []string
		for i := start; i < min(start+paletteColumns, len(models.TagPalette)); i++ {
			row = append(row, styles.Swatch(models.TagPalette[i], i == v.colorIdx))
		}
		rows = append(rows, strings.Join(row, ""))
	}
	palette := lipgloss.JoinVertical(lipgloss.Left, rows...)
	if v.formFocus == 1 {
		palette = s.InputFocused.Render(palette)
	} else {
		palette = s.Input.Render(palette)
	}

	lines := []string{
		s.Title.Render(title),
		"",
		"Name:",
		nameStyle.Width(v.width - 8).Render(v.nameInput.View()),
		"Color:",
		palette,
		btnStyle.Render(" Save "),
	}
	if v.formErr != "" {
		lines = append(lines, s.Error.Width(v.width-6).Render(v.formErr))
	}
	lines = append(lines, s.TitleMuted.Width(v.width-6).Render("Tab: next • ←→: color • Ctrl+S: save • Esc: cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *SidebarView) renderHelp() string {
	if !v.focused {
		return v.styles.TitleMuted.Render("f: focus")
	}
	return v.styles.TitleMuted.Render(
		fmt.Sprintf("%s show • %s new\n%s edit • %s del",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("d"),
		),
	)
}
