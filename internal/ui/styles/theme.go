package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme represents a color scheme for the application
type Theme struct {
	Name string

	// Base colors
	Background    lipgloss.Color
	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// UI element colors
	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
	Cursor      lipgloss.Color
}

// TokyoNight is the default color theme
var TokyoNight = Theme{
	Name: "tokyonight",

	Background:    lipgloss.Color("#1a1b26"),
	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),

	Primary:   lipgloss.Color("#7aa2f7"),
	Secondary: lipgloss.Color("#bb9af7"),
	Accent:    lipgloss.Color("#7dcfff"),

	Success: lipgloss.Color("#9ece6a"),
	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),
	Info:    lipgloss.Color("#7aa2f7"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Selection:   lipgloss.Color("#33467c"),
	Cursor:      lipgloss.Color("#c0caf5"),
}

// Light suits terminals with a light background
var Light = Theme{
	Name: "light",

	Background:    lipgloss.Color("#f5f5f5"),
	Foreground:    lipgloss.Color("#212121"),
	ForegroundDim: lipgloss.Color("#757575"),

	Primary:   lipgloss.Color("#1976d2"),
	Secondary: lipgloss.Color("#7b1fa2"),
	Accent:    lipgloss.Color("#0097a7"),

	Success: lipgloss.Color("#388e3c"),
	Warning: lipgloss.Color("#f57c00"),
	Error:   lipgloss.Color("#d32f2f"),
	Info:    lipgloss.Color("#1976d2"),

	Border:      lipgloss.Color("#bdbdbd"),
	BorderFocus: lipgloss.Color("#1976d2"),
	Selection:   lipgloss.Color("#e3f2fd"),
	Cursor:      lipgloss.Color("#212121"),
}

// Current holds the active theme
var Current = TokyoNight

// SetTheme selects a theme by name; unknown names keep the current theme
func SetTheme(name string) {
	switch strings.ToLower(name) {
	case TokyoNight.Name:
		Current = TokyoNight
	case Light.Name:
		Current = Light
	}
}

// MaxWidth is the maximum content width for the app
const MaxWidth = 100

// SidebarWidth is the width of the tag sidebar, borders included
const SidebarWidth = 26

// ContentWidth returns the actual content width to use (min of terminal width and MaxWidth)
func ContentWidth(terminalWidth int) int {
	if terminalWidth > MaxWidth {
		return MaxWidth
	}
	return terminalWidth
}

// CenterView wraps content and centers it horizontally if terminal is wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// Clamp returns val clamped between minVal and maxVal
func Clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// Styles holds all the pre-computed styles for the UI
type Styles struct {
	// Title bar
	Title      lipgloss.Style
	TitleMuted lipgloss.Style
	Greeting   lipgloss.Style

	// Lists
	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
	GroupHeader  lipgloss.Style

	// Sidebar
	Sidebar        lipgloss.Style
	SidebarFocused lipgloss.Style
	Count          lipgloss.Style

	// Popups and dropdowns
	Popup lipgloss.Style

	// Buttons
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style

	// Task item
	TaskTitle lipgloss.Style
	TaskDone  lipgloss.Style
	Scheduled lipgloss.Style
	Overdue   lipgloss.Style

	// Input fields
	Input        lipgloss.Style
	InputFocused lipgloss.Style
	Error        lipgloss.Style

	// Help text
	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	// Update banner
	Banner lipgloss.Style
}

// NewStyles creates styles based on the current theme
func NewStyles() *Styles {
	t := Current

	return &Styles{
		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		TitleMuted: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Greeting: lipgloss.NewStyle().
			Foreground(t.Secondary).
			Bold(true),

		ListItem: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Padding(0, 1),

		ListSelected: lipgloss.NewStyle().
			Foreground(t.Primary).
			Background(t.Selection).
			Padding(0, 1).
			Bold(true),

		GroupHeader: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Bold(true).
			Padding(0, 1),

		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		SidebarFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		Count: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Popup: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),

		Button: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),

		ButtonFocused: lipgloss.NewStyle().
			Foreground(t.Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 2).
			Bold(true),

		ButtonPrimary: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Primary).
			Padding(0, 2).
			Bold(true),

		TaskTitle: lipgloss.NewStyle().
			Foreground(t.Foreground),

		TaskDone: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Strikethrough(true),

		Scheduled: lipgloss.NewStyle().
			Foreground(t.Accent),

		Overdue: lipgloss.NewStyle().
			Foreground(t.Warning),

		Input: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		InputFocused: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus).
			Padding(0, 1),

		Error: lipgloss.NewStyle().
			Foreground(t.Error),

		Help: lipgloss.NewStyle().
			Foreground(t.ForegroundDim).
			Padding(1, 1, 0, 1),

		HelpKey: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		HelpDesc: lipgloss.NewStyle().
			Foreground(t.ForegroundDim),

		Banner: lipgloss.NewStyle().
			Foreground(t.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Info).
			Padding(0, 1),
	}
}

// Chip renders a tag name in its own color
func Chip(name, color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("● " + name)
}

// Swatch renders a color sample
func Swatch(color string, selected bool) string {
	s := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	if selected {
		return s.Bold(true).Render("[■]")
	}
	return s.Render(" ■ ")
}
