package views

import (
	"slices"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tdl/internal/models"
	"github.com/tgienger/tdl/internal/ui/styles"
)

// FocusSidebar asks the app to move focus to the tag sidebar
type FocusSidebar struct{}

// FocusTasks asks the app to move focus to the task list
type FocusTasks struct {
	Search bool // focus the search box instead of the list
}

// HeaderDateLayout formats today's date in the task list header
const HeaderDateLayout = "Mon 2 Jan 2006"

// Greeting returns the salutation for the time of day
func Greeting(now time.Time) string {
	switch h := now.Hour(); {
	case h >= 6 && h < 12:
		return "Good Morning!"
	case h >= 12 && h < 18:
		return "Good Afternoon!"
	default:
		return "Good Evening!"
	}
}

// toggleID adds id to ids, or removes it when already present
func toggleID(ids []string, id string) []string {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return append(ids, id)
}

// renderTagChecklist renders tags as checkboxes, highlighting the cursor row when focused
func renderTagChecklist(s *styles.Styles, tags []models.Tag, checked []string, cursor int, focused bool) string {
	if len(tags) == 0 {
		return s.TitleMuted.Render("No tags available")
	}

	items := make([]string, 0, len(tags))
	for i, tag := range tags {
		checkbox := "[ ]"
		if slices.Contains(checked, tag.ID) {
			checkbox = "[x]"
		}
		itemText := checkbox + " " + styles.Chip(tag.Name, tag.Color)
		if focused && i == cursor {
			items = append(items, s.ListSelected.Render(itemText))
		} else {
			items = append(items, s.ListItem.Render(itemText))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

// renderConfirm renders a centered yes/no prompt
func renderConfirm(s *styles.Styles, title, detail string, width, height int) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render(title),
		"",
		s.TitleMuted.Render(detail),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// renderHelpPopup renders a boxed list of shortcuts
func renderHelpPopup(s *styles.Styles, items [][2]string, width, height int) string {
	lines := []string{s.Title.Render("Keyboard Shortcuts"), ""}
	for _, item := range items {
		lines = append(lines, s.HelpKey.Width(8).Render(item[0])+item[1])
	}
	lines = append(lines, "", s.TitleMuted.Render("Press any key to close"))

	return lipgloss.Place(width, height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
}
