// Package ui is the full-screen terminal interface: a tag sidebar beside the
// task list, with an update banner on top.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/tdl/internal/config"
	"github.com/tgienger/tdl/internal/logger"
	"github.com/tgienger/tdl/internal/store"
	"github.com/tgienger/tdl/internal/ui/styles"
	"github.com/tgienger/tdl/internal/ui/views"
	"github.com/tgienger/tdl/internal/updater"
	"github.com/tgienger/tdl/internal/validation"
)

// Pane is the part of the screen that receives keys
type Pane int

const (
	PaneTasks Pane = iota
	PaneSidebar
)

// Deps are the services the interface runs against
type Deps struct {
	Store    *store.Store
	Updater  *updater.Updater // optional
	Settings views.Settings   // optional
	Config   *config.Config
	Log      *logger.Logger
	Now      func() time.Time
}

type stateChangedMsg struct {
	state store.State
}

type App struct {
	store  *store.Store
	cfg    *config.Config
	log    *logger.Logger
	styles *styles.Styles

	sidebar  *views.SidebarView
	taskList *views.TaskListView
	banner   *views.UpdateBanner

	focus       Pane
	changes     chan store.State
	unsubscribe func()

	width  int
	height int
}

// NewApp creates the application model
func NewApp(d Deps) *App {
	if d.Config == nil {
		d.Config = config.Default()
	}
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	// styles are computed from the theme at construction
	styles.SetTheme(d.Config.UI.Theme)

	v := validation.New()
	a := &App{
		store:    d.Store,
		cfg:      d.Config,
		log:      d.Log,
		styles:   styles.NewStyles(),
		sidebar:  views.NewSidebarView(d.Store, v),
		taskList: views.NewTaskListView(d.Store, v, d.Now),
		banner:   views.NewUpdateBanner(d.Updater, d.Settings, d.Now),
		focus:    PaneTasks,
		changes:  make(chan store.State, 1),
	}
	a.taskList.Focus(false)

	a.unsubscribe = d.Store.Subscribe(func(st store.State) {
		// keep only the newest snapshot
		select {
		case <-a.changes:
		default:
		}
		select {
		case a.changes <- st:
		default:
		}
	})
	return a
}

// Close stops listening to the store
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// InstallRequested reports whether an update was installed before quitting
func (a *App) InstallRequested() bool {
	return a.banner.InstallRequested()
}

// Focused returns the pane receiving keys
func (a *App) Focused() Pane {
	return a.focus
}

func (a *App) waitForState() tea.Cmd {
	changes := a.changes
	return func() tea.Msg {
		st, ok := <-changes
		if !ok {
			return nil
		}
		return stateChangedMsg{state: st}
	}
}

func (a *App) Init() tea.Cmd {
	a.log.Debugw("Interface started", "tasks", len(a.store.Tasks()), "tags", len(a.store.Tags()))

	cmds := []tea.Cmd{
		a.waitForState(),
		a.banner.WaitForEvent(),
		a.sidebar.Init(),
		a.taskList.Init(),
	}
	if a.cfg.Update.CheckOnStart {
		cmds = append(cmds, a.banner.StartupCheck(a.cfg.Update.CheckInterval))
	}
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case stateChangedMsg:
		a.sidebar.SetState(msg.state)
		a.taskList.SetState(msg.state)
		return a, a.waitForState()

	case views.FocusSidebar:
		a.focus = PaneSidebar
		a.taskList.Blur()
		a.sidebar.Focus()
		return a, nil

	case views.FocusTasks:
		a.focus = PaneTasks
		a.sidebar.Blur()
		return a, a.taskList.Focus(msg.Search)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.modal() {
			if cmd, ok := a.banner.HandleKey(msg); ok {
				if a.banner.InstallRequested() {
					a.log.Infow("Update installed, quitting")
				}
				a.layout()
				return a, cmd
			}
		}
		cmd := a.updateFocused(msg)
		a.layout()
		return a, cmd
	}

	cmds = append(cmds, a.banner.Update(msg))
	cmds = append(cmds, a.updateFocused(msg))
	a.layout()
	return a, tea.Batch(cmds...)
}

func (a *App) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.focus {
	case PaneSidebar:
		_, cmd = a.sidebar.Update(msg)
	default:
		_, cmd = a.taskList.Update(msg)
	}
	return cmd
}

func (a *App) modal() bool {
	if a.focus == PaneSidebar {
		return a.sidebar.Modal()
	}
	return a.taskList.Modal()
}

// layout sizes the panes around the banner and status line
func (a *App) layout() {
	if a.width == 0 {
		return
	}
	width := styles.ContentWidth(a.width)
	height := max(a.height-lines(a.header(width))-lines(a.footer()), 5)

	a.sidebar.SetSize(styles.SidebarWidth, height)
	a.taskList.SetSize(max(width-styles.SidebarWidth-1, 20), height)
}

func lines(s string) int {
	if s == "" {
		return 0
	}
	return lipgloss.Height(s)
}

func (a *App) header(width int) string {
	if !a.banner.Visible() {
		return ""
	}
	return a.banner.View(width)
}

func (a *App) footer() string {
	if err := a.store.LastSaveError(); err != nil {
		return a.styles.Error.Render(" Changes are not being saved: " + err.Error())
	}
	return ""
}

func (a *App) View() string {
	if a.width == 0 {
		return ""
	}
	width := styles.ContentWidth(a.width)

	parts := make([]string, 0, 3)
	if h := a.header(width); h != "" {
		parts = append(parts, h)
	}
	parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, a.sidebar.View(), " ", a.taskList.View()))
	if f := a.footer(); f != "" {
		parts = append(parts, f)
	}

	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, parts...), a.width, a.height)
}
